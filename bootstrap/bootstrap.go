// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/artpar/entrack/adapters/clock"
	"github.com/artpar/entrack/adapters/idgen"
	"github.com/artpar/entrack/adapters/metrics"
	"github.com/artpar/entrack/adapters/sqlite"
	"github.com/artpar/entrack/config"
	"github.com/artpar/entrack/core/change"
	"github.com/artpar/entrack/core/model"
	"github.com/artpar/entrack/ports"
	"github.com/artpar/entrack/web"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Holder     *config.Holder
	DB         *sqlite.DB
	Model      *model.Model
	Mapper     *model.TypeMapper
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	Clock      ports.Clock
	Tracker    *change.Tracker
	Records    *sqlite.RecordStore
	HTTPServer *http.Server
}

// New creates and initializes the application from a config file. When the
// file does not exist, configuration falls back to ENTRACK_* environment
// variables (without hot reload).
func New(configPath string) (*App, error) {
	a := &App{}

	if err := a.initConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}
	a.Logger = setupLogger(a.Config.Logging)
	a.Logger.Info().Msg("initializing entrack")

	if err := a.initModel(); err != nil {
		return nil, fmt.Errorf("init model: %w", err)
	}
	if err := a.initDatabase(); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.initMetrics()
	a.initTracking()
	a.initHTTPServer()

	return a, nil
}

func (a *App) initConfig(path string) error {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			h, err := config.NewHolder(path, zerolog.New(os.Stdout).With().Timestamp().Logger())
			if err != nil {
				return err
			}
			a.Holder = h
			a.Config = h.Get()
			return nil
		}
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		return err
	}
	a.Config = cfg
	return nil
}

func (a *App) initModel() error {
	m, err := model.LoadYAML(a.Config.Model.Path)
	if err != nil {
		return err
	}

	mapper := model.NewTypeMapper()
	if err := a.Config.Mapping.Apply(mapper); err != nil {
		return err
	}

	a.Model = m
	a.Mapper = mapper
	a.Logger.Info().
		Str("path", a.Config.Model.Path).
		Int("entities", len(m.Entities)).
		Msg("model loaded")

	// Mapping overrides are reloadable; the mapper is reapplied in place.
	if a.Holder != nil {
		a.Holder.OnChange(func(cfg *config.Config) {
			if err := cfg.Mapping.Apply(a.Mapper); err != nil {
				a.Logger.Error().Err(err).Msg("reapply mapping overrides failed")
			}
		})
	}
	return nil
}

func (a *App) initDatabase() error {
	db, err := sqlite.Open(a.Config.Database.DSN)
	if err != nil {
		return err
	}
	if err := db.CreateTables(a.Model, a.Mapper); err != nil {
		db.Close()
		return err
	}

	a.DB = db
	a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("database initialized")
	return nil
}

func (a *App) initMetrics() {
	if !a.Config.Metrics.Enabled {
		return
	}
	a.Registry = prometheus.NewRegistry()
	a.Metrics = metrics.NewWithRegistry(a.Registry)
	if a.Holder != nil {
		a.Holder.SetMetrics(a.Metrics)
	}
	a.Logger.Info().Msg("prometheus metrics enabled")
}

func (a *App) initTracking() {
	// A nil *Collector is a typed nil; pass an untyped nil when disabled.
	var m change.Metrics
	if a.Metrics != nil {
		m = a.Metrics
	}
	a.Clock = clock.Real{}
	a.Tracker = change.NewTracker(a.Model, a.Clock, m)
	a.Records = sqlite.NewRecordStore(a.DB, a.Model, idgen.UUID{})
}

func (a *App) initHTTPServer() {
	dialect, err := model.ParseDialect(a.Config.Mapping.Dialect)
	if err != nil {
		dialect = model.DialectSQLite
	}

	handler := web.NewHandler(web.Deps{
		Model:        a.Model,
		Mapper:       a.Mapper,
		Dialect:      dialect,
		Introspector: a.DB,
		Collector:    a.Metrics,
		Gatherer:     a.Registry,
		Logger:       a.Logger,
	})

	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
}

// Run starts the server and blocks until interrupted.
func (a *App) Run() error {
	if a.Holder != nil {
		if err := a.Holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		a.Holder.WatchSignals()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
			return err
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
