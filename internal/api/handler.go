// Package api serves the question pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sqler/sqler/internal/auth"
	"github.com/sqler/sqler/internal/config"
	"github.com/sqler/sqler/internal/examples"
	"github.com/sqler/sqler/internal/observability"
	"github.com/sqler/sqler/internal/pipeline"
	"github.com/sqler/sqler/internal/schema"
)

type ReadinessCheck func(ctx context.Context) error

type Asker interface {
	Ask(ctx context.Context, question string, opts pipeline.Options) pipeline.Outcome
}

type SchemaSource interface {
	Get(ctx context.Context) (schema.Schema, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Pipeline          Asker
	Schema            SchemaSource
	Examples          func(ctx context.Context) examples.Set
	// ChartDir holds the per-request chart files served by GET /v1/charts/{id}.
	ChartDir string
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	routes := map[string]http.HandlerFunc{
		"POST /v1/ask": func(w http.ResponseWriter, r *http.Request) {
			handleAsk(deps, w, r)
		},
		"GET /v1/schema": func(w http.ResponseWriter, r *http.Request) {
			handleSchema(deps, w, r)
		},
		"GET /v1/examples": func(w http.ResponseWriter, r *http.Request) {
			handleExamples(deps, w, r)
		},
		"GET /v1/charts/{id}": func(w http.ResponseWriter, r *http.Request) {
			handleChart(deps, w, r)
		},
	}

	wrap := func(h http.Handler) http.Handler {
		return auth.RequireRole(auth.RoleQueryReader, h)
	}
	switch {
	case !cfg.Auth.Required:
		inner := wrap
		wrap = func(h http.Handler) http.Handler { return auth.Middleware(nil, nil)(inner(h)) }
	case deps.AuthMiddleware == nil:
		if deps.Logger != nil {
			deps.Logger.Error("auth required but auth middleware missing")
		}
		wrap = func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		}
	default:
		inner := wrap
		wrap = func(h http.Handler) http.Handler { return deps.AuthMiddleware(inner(h)) }
	}
	for pattern, handler := range routes {
		mux.Handle(pattern, wrap(handler))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	middlewares = append(middlewares, observability.RecoverMiddleware(deps.Logger))
	return chain(mux, middlewares...)
}

// CheckSchema is ready once the database schema can be read.
func CheckSchema(source SchemaSource) ReadinessCheck {
	return func(ctx context.Context) error {
		_, err := source.Get(ctx)
		return err
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
