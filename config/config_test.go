package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/entrack/config"
	"github.com/artpar/entrack/core/model"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 15s

model:
  path: "model.yaml"

database:
  driver: "sqlite"
  dsn: ":memory:"

mapping:
  dialect: "postgres"
  overrides:
    - dialect: "postgres"
      kind: "string"
      column_type: "varchar(255)"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Model.Path != "model.yaml" {
		t.Errorf("Model.Path = %s, want model.yaml", cfg.Model.Path)
	}
	if cfg.Mapping.Dialect != "postgres" {
		t.Errorf("Mapping.Dialect = %s, want postgres", cfg.Mapping.Dialect)
	}
	if len(cfg.Mapping.Overrides) != 1 {
		t.Fatalf("len(Overrides) = %d, want 1", len(cfg.Mapping.Overrides))
	}
	if cfg.Mapping.Overrides[0].ColumnType != "varchar(255)" {
		t.Errorf("Overrides[0].ColumnType = %s, want varchar(255)", cfg.Mapping.Overrides[0].ColumnType)
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
model:
  path: "model.yaml"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "entrack.db" {
		t.Errorf("default Database.DSN = %s, want entrack.db", cfg.Database.DSN)
	}
	if cfg.Mapping.Dialect != "sqlite" {
		t.Errorf("default Mapping.Dialect = %s, want sqlite", cfg.Mapping.Dialect)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics.Path = %s, want /metrics", cfg.Metrics.Path)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TEST_MODEL_PATH", "/etc/entrack/model.yaml")
	defer os.Unsetenv("TEST_MODEL_PATH")

	content := `
model:
  path: "${TEST_MODEL_PATH}"
`

	cfg := writeAndLoad(t, content)

	if cfg.Model.Path != "/etc/entrack/model.yaml" {
		t.Errorf("Model.Path = %s, want /etc/entrack/model.yaml", cfg.Model.Path)
	}
}

func TestLoad_MissingModelPath(t *testing.T) {
	content := `
server:
  port: 8080
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for missing model.path")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", `model: [`},
		{"unknown driver", `
model:
  path: "model.yaml"
database:
  driver: "postgres"
`},
		{"unknown dialect", `
model:
  path: "model.yaml"
mapping:
  dialect: "oracle"
`},
		{"override unknown kind", `
model:
  path: "model.yaml"
mapping:
  overrides:
    - dialect: "sqlite"
      kind: "decimal"
      column_type: "NUMERIC"
`},
		{"override blank column type", `
model:
  path: "model.yaml"
mapping:
  overrides:
    - dialect: "sqlite"
      kind: "string"
      column_type: "  "
`},
		{"bad log level", `
model:
  path: "model.yaml"
logging:
  level: "verbose"
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := writeAndLoadErr(t, tt.content); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := config.Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("ENTRACK_MODEL_PATH", "/data/model.yaml")
	os.Setenv("ENTRACK_SERVER_PORT", "9999")
	os.Setenv("ENTRACK_DATABASE_DSN", "/tmp/env-test.db")
	os.Setenv("ENTRACK_LOG_LEVEL", "debug")
	os.Setenv("ENTRACK_METRICS_ENABLED", "true")
	defer func() {
		os.Unsetenv("ENTRACK_MODEL_PATH")
		os.Unsetenv("ENTRACK_SERVER_PORT")
		os.Unsetenv("ENTRACK_DATABASE_DSN")
		os.Unsetenv("ENTRACK_LOG_LEVEL")
		os.Unsetenv("ENTRACK_METRICS_ENABLED")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Model.Path != "/data/model.yaml" {
		t.Errorf("Model.Path = %s, want /data/model.yaml", cfg.Model.Path)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.DSN != "/tmp/env-test.db" {
		t.Errorf("Database.DSN = %s, want /tmp/env-test.db", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoadFromEnv_MissingRequired(t *testing.T) {
	os.Unsetenv("ENTRACK_MODEL_PATH")

	if _, err := config.LoadFromEnv(); err == nil {
		t.Fatal("expected error for missing model path")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	os.Setenv("ENTRACK_SERVER_PORT", "7777")
	os.Setenv("ENTRACK_LOG_LEVEL", "error")
	defer func() {
		os.Unsetenv("ENTRACK_SERVER_PORT")
		os.Unsetenv("ENTRACK_LOG_LEVEL")
	}()

	content := `
model:
  path: "model.yaml"
server:
  port: 8080
logging:
  level: "info"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error (env override)", cfg.Logging.Level)
	}
	// File value should still be used for non-overridden
	if cfg.Model.Path != "model.yaml" {
		t.Errorf("Model.Path = %s, want model.yaml", cfg.Model.Path)
	}
}

func TestEnvOverrides_InvalidValues(t *testing.T) {
	os.Setenv("ENTRACK_MODEL_PATH", "/data/model.yaml")
	os.Setenv("ENTRACK_SERVER_PORT", "not-a-number")
	os.Setenv("ENTRACK_SERVER_READ_TIMEOUT", "not-a-duration")
	defer func() {
		os.Unsetenv("ENTRACK_MODEL_PATH")
		os.Unsetenv("ENTRACK_SERVER_PORT")
		os.Unsetenv("ENTRACK_SERVER_READ_TIMEOUT")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	// Invalid env values fall back to defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s (default)", cfg.Server.ReadTimeout)
	}
}

func TestLoadWithFallback_FileExists(t *testing.T) {
	content := `
model:
  path: "/from-file/model.yaml"
`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}

	if cfg.Model.Path != "/from-file/model.yaml" {
		t.Errorf("Model.Path = %s, want /from-file/model.yaml", cfg.Model.Path)
	}
}

func TestLoadWithFallback_EnvOnly(t *testing.T) {
	os.Setenv("ENTRACK_MODEL_PATH", "/from-env/model.yaml")
	defer os.Unsetenv("ENTRACK_MODEL_PATH")

	cfg, err := config.LoadWithFallback("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}

	if cfg.Model.Path != "/from-env/model.yaml" {
		t.Errorf("Model.Path = %s, want /from-env/model.yaml", cfg.Model.Path)
	}
}

func TestLoadWithFallback_NoConfig(t *testing.T) {
	os.Unsetenv("ENTRACK_MODEL_PATH")

	if _, err := config.LoadWithFallback("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error when no config available")
	}
}

func TestMapping_Apply(t *testing.T) {
	mc := config.MappingConfig{
		Overrides: []config.TypeOverride{
			{Dialect: "postgres", Kind: "string", ColumnType: "varchar(255)"},
		},
	}

	mapper := model.NewTypeMapper()
	if err := mc.Apply(mapper); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := mapper.ColumnType(model.DialectPostgres, model.Property{Name: "p", Kind: model.KindString})
	if err != nil {
		t.Fatalf("ColumnType: %v", err)
	}
	if got != "varchar(255)" {
		t.Errorf("ColumnType = %q, want varchar(255)", got)
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"off", false},
		{"invalid", false},
	}

	for _, tt := range tests {
		os.Setenv("ENTRACK_MODEL_PATH", "/data/model.yaml")
		os.Setenv("ENTRACK_METRICS_ENABLED", tt.value)

		cfg, err := config.LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv error: %v", err)
		}

		if cfg.Metrics.Enabled != tt.expected {
			t.Errorf("value=%q: Metrics.Enabled = %v, want %v", tt.value, cfg.Metrics.Enabled, tt.expected)
		}

		os.Unsetenv("ENTRACK_MODEL_PATH")
		os.Unsetenv("ENTRACK_METRICS_ENABLED")
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
