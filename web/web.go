// Package web provides the model inspection HTTP API: entity schemas, mapped
// column types per dialect, and live introspection of the backing database.
package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/entrack/adapters/metrics"
	"github.com/artpar/entrack/core/model"
	"github.com/artpar/entrack/ports"
)

// Handler serves the inspection endpoints.
type Handler struct {
	model        *model.Model
	mapper       *model.TypeMapper
	dialect      model.Dialect
	introspector ports.SchemaIntrospector
	collector    *metrics.Collector
	gatherer     prometheus.Gatherer
	logger       zerolog.Logger
}

// Deps contains dependencies for the web handler. Introspector and the
// metrics fields may be nil; the corresponding endpoints are disabled.
type Deps struct {
	Model        *model.Model
	Mapper       *model.TypeMapper
	Dialect      model.Dialect // default dialect for the columns endpoint
	Introspector ports.SchemaIntrospector
	Collector    *metrics.Collector
	Gatherer     prometheus.Gatherer
	Logger       zerolog.Logger
}

// NewHandler creates a new inspection handler.
func NewHandler(deps Deps) *Handler {
	dialect := deps.Dialect
	if dialect == "" {
		dialect = model.DialectSQLite
	}
	return &Handler{
		model:        deps.Model,
		mapper:       deps.Mapper,
		dialect:      dialect,
		introspector: deps.Introspector,
		collector:    deps.Collector,
		gatherer:     deps.Gatherer,
		logger:       deps.Logger,
	}
}

// Router returns the inspection API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(h.observe)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/model", h.Model)
		r.Get("/model/{entity}", h.Entity)
		r.Get("/model/{entity}/columns", h.Columns)
		if h.introspector != nil {
			r.Get("/tables/{table}", h.Table)
		}
	})

	if h.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// observe logs each request and counts it by route pattern and status.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Msg("request")
		if h.collector != nil {
			h.collector.RequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
		}
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Model returns the full model schema.
func (h *Handler) Model(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.model.Schema())
}

// Entity returns one entity's schema.
func (h *Handler) Entity(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "entity")
	e, ok := h.model.Entity(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity "+name)
		return
	}
	writeJSON(w, http.StatusOK, e.Schema())
}

// Columns returns the mapped column types for an entity. The dialect query
// parameter overrides the configured default.
func (h *Handler) Columns(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "entity")
	e, ok := h.model.Entity(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity "+name)
		return
	}

	dialect := h.dialect
	if q := r.URL.Query().Get("dialect"); q != "" {
		d, err := model.ParseDialect(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		dialect = d
	}

	cols, err := model.Columns(e, h.mapper, dialect)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entity":  e.Name,
		"table":   e.Table,
		"dialect": string(dialect),
		"columns": cols,
	})
}

// Table returns the live column types the database reports for a table.
func (h *Handler) Table(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	cols, err := h.introspector.Introspect(r.Context(), table)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table":   table,
		"columns": cols,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
