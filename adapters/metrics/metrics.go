// Package metrics provides Prometheus metrics collection for entrack.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for entrack.
type Collector struct {
	// Change-detection metrics
	DetectPasses   *prometheus.CounterVec
	ChangesTotal   *prometheus.CounterVec
	SnapshotsTotal *prometheus.CounterVec

	// HTTP metrics (inspection server)
	RequestsTotal *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered with the default registry.
func New() *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newCollector(promauto.With(reg))
}

func newCollector(factory promauto.Factory) *Collector {
	return &Collector{
		DetectPasses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "entrack",
				Name:      "detect_passes_total",
				Help:      "Total number of change-detection passes",
			},
			[]string{"entity"},
		),
		ChangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "entrack",
				Name:      "changes_total",
				Help:      "Total number of property changes detected",
			},
			[]string{"entity"},
		),
		SnapshotsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "entrack",
				Name:      "snapshots_total",
				Help:      "Total number of record snapshots taken",
			},
			[]string{"entity"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "entrack",
				Name:      "requests_total",
				Help:      "Total number of inspection requests processed",
			},
			[]string{"method", "path", "status"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "entrack",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "entrack",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "entrack",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// DetectPass implements change.Metrics.
func (c *Collector) DetectPass(entity string) {
	c.DetectPasses.WithLabelValues(entity).Inc()
}

// ChangesFound implements change.Metrics.
func (c *Collector) ChangesFound(entity string, n int) {
	c.ChangesTotal.WithLabelValues(entity).Add(float64(n))
}

// SnapshotTaken implements change.Metrics.
func (c *Collector) SnapshotTaken(entity string) {
	c.SnapshotsTotal.WithLabelValues(entity).Inc()
}

// ConfigReloaded implements config.ReloadMetrics.
func (c *Collector) ConfigReloaded() {
	c.ConfigReloads.Inc()
	c.ConfigLastReload.SetToCurrentTime()
}

// ConfigReloadFailed implements config.ReloadMetrics.
func (c *Collector) ConfigReloadFailed() {
	c.ConfigReloadErrors.Inc()
}
