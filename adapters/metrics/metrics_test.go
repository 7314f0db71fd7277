package metrics_test

import (
	"testing"

	"github.com/artpar/entrack/adapters/metrics"
	"github.com/artpar/entrack/core/change"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.DetectPasses == nil || m.ChangesTotal == nil || m.SnapshotsTotal == nil {
		t.Error("change-detection metrics not initialized")
	}
	if m.RequestsTotal == nil {
		t.Error("RequestsTotal not initialized")
	}
	if m.ConfigReloads == nil || m.ConfigReloadErrors == nil || m.ConfigLastReload == nil {
		t.Error("config metrics not initialized")
	}
}

func TestCollector_ImplementsChangeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	var _ change.Metrics = m

	m.DetectPass("user")
	m.DetectPass("user")
	m.ChangesFound("user", 3)
	m.SnapshotTaken("user")

	if got := testutil.ToFloat64(m.DetectPasses.WithLabelValues("user")); got != 2 {
		t.Errorf("detect passes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ChangesTotal.WithLabelValues("user")); got != 3 {
		t.Errorf("changes = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.SnapshotsTotal.WithLabelValues("user")); got != 1 {
		t.Errorf("snapshots = %v, want 1", got)
	}
}
