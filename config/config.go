// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/entrack/core/model"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Model    ModelConfig    `yaml:"model"`
	Mapping  MappingConfig  `yaml:"mapping"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite"
	DSN    string `yaml:"dsn"`
}

// ModelConfig points at the entity model definition.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// MappingConfig configures column type mapping.
type MappingConfig struct {
	Dialect   string         `yaml:"dialect"` // default dialect for introspection endpoints
	Overrides []TypeOverride `yaml:"overrides"`
}

// TypeOverride replaces the built-in column type rule for one dialect/kind
// pair.
type TypeOverride struct {
	Dialect    string `yaml:"dialect"`
	Kind       string `yaml:"kind"`
	ColumnType string `yaml:"column_type"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /metrics
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// Useful for container deployments where no config file is mounted.
//
// Environment variables:
//
//	ENTRACK_MODEL_PATH      - Entity model YAML path (required)
//	ENTRACK_DATABASE_DSN    - Database path (default: entrack.db)
//	ENTRACK_SERVER_HOST     - Server host (default: 0.0.0.0)
//	ENTRACK_SERVER_PORT     - Server port (default: 8080)
//	ENTRACK_MAPPING_DIALECT - Default mapping dialect (default: sqlite)
//	ENTRACK_LOG_LEVEL       - Log level: debug, info, warn, error (default: info)
//	ENTRACK_LOG_FORMAT      - Log format: json or console (default: json)
//	ENTRACK_METRICS_ENABLED - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if os.Getenv("ENTRACK_MODEL_PATH") != "" {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set ENTRACK_MODEL_PATH")
}

// Apply registers every configured type override on a mapper.
func (m MappingConfig) Apply(mapper *model.TypeMapper) error {
	for i, o := range m.Overrides {
		d, err := model.ParseDialect(o.Dialect)
		if err != nil {
			return fmt.Errorf("mapping.overrides[%d]: %w", i, err)
		}
		if err := mapper.Override(d, model.Kind(o.Kind), o.ColumnType); err != nil {
			return fmt.Errorf("mapping.overrides[%d]: %w", i, err)
		}
	}
	return nil
}

// applyEnvOverrides applies ENTRACK_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ENTRACK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ENTRACK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ENTRACK_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("ENTRACK_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("ENTRACK_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("ENTRACK_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("ENTRACK_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}

	if v := os.Getenv("ENTRACK_MAPPING_DIALECT"); v != "" {
		cfg.Mapping.Dialect = v
	}

	if v := os.Getenv("ENTRACK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ENTRACK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("ENTRACK_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("ENTRACK_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "entrack.db"
	}

	if cfg.Mapping.Dialect == "" {
		cfg.Mapping.Dialect = "sqlite"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}

	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be 'sqlite', got %q", cfg.Database.Driver)
	}

	if _, err := model.ParseDialect(cfg.Mapping.Dialect); err != nil {
		return fmt.Errorf("mapping.dialect: %w", err)
	}
	for i, o := range cfg.Mapping.Overrides {
		if _, err := model.ParseDialect(o.Dialect); err != nil {
			return fmt.Errorf("mapping.overrides[%d]: %w", i, err)
		}
		if !model.Kind(o.Kind).Valid() {
			return fmt.Errorf("mapping.overrides[%d]: unknown kind %q", i, o.Kind)
		}
		if strings.TrimSpace(o.ColumnType) == "" {
			return fmt.Errorf("mapping.overrides[%d]: column_type is required", i)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}

	return nil
}
