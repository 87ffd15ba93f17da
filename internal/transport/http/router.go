// Package httptransport assembles the site's HTTP surface: platform
// middleware, the auth gateway, and the route handlers.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pressroom/internal/audit"
	authhandler "pressroom/internal/auth/handler"
	authmw "pressroom/internal/auth/middleware"
	"pressroom/internal/content"
	"pressroom/internal/platform/middleware"
	"pressroom/internal/ratelimit"
)

// Deps carries the wired components the router mounts.
type Deps struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Gateway  *authmw.Gateway
	Auth     *authhandler.Handler
	Content  *content.Handler

	// Optional surfaces.
	Activity  *audit.Handler
	RateLimit *ratelimit.Middleware

	// HealthChecks run on /healthz; any failure flips the endpoint to 503.
	HealthChecks map[string]func(context.Context) error
}

// NewRouter builds the full handler stack. The gateway wraps every route,
// including the public ones: public paths pass through it untouched, but a
// session refresh that happens during resolution still needs its Set-Cookie
// headers written on whatever response goes out.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/healthz", healthHandler(deps))
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	r.Group(func(gr chi.Router) {
		gr.Use(deps.Gateway.Handler)

		gr.Group(func(ar chi.Router) {
			if deps.RateLimit != nil {
				ar.Use(deps.RateLimit.Limit)
			}
			deps.Auth.Register(ar)
		})

		deps.Content.Register(gr)
		if deps.Activity != nil {
			deps.Activity.Register(gr)
		}
	})

	return r
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		checks := make(map[string]string, len(deps.HealthChecks))
		for name, check := range deps.HealthChecks {
			if err := check(ctx); err != nil {
				deps.Logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": http.StatusText(status),
			"checks": checks,
		})
	}
}
