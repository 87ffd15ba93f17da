// Package middleware contains the edge auth gateway. It runs before any page
// logic and makes the coarse authorization decision for every request; the
// handlers behind it re-verify independently, so the gateway is the first
// layer of defense, not the only one.
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"pressroom/internal/auth/identity"
	"pressroom/internal/auth/service"
	"pressroom/internal/auth/state"
	"pressroom/internal/platform/config"
	"pressroom/internal/platform/metrics"
	"pressroom/pkg/requestcontext"
)

// Gateway gates requests by session presence and role.
type Gateway struct {
	identity *identity.Client
	resolver *service.Resolver
	routes   config.Routes
	bus      *state.Bus
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewGateway builds the edge gateway.
func NewGateway(client *identity.Client, resolver *service.Resolver, routes config.Routes, bus *state.Bus, m *metrics.Metrics, logger *slog.Logger) *Gateway {
	return &Gateway{
		identity: client,
		resolver: resolver,
		routes:   routes,
		bus:      bus,
		metrics:  m,
		logger:   logger,
	}
}

// Handler is the middleware. The authorization decision is a pure function
// of (path, session presence, role) and is recomputed on every request.
func (g *Gateway) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		path := r.URL.Path

		bound := g.identity.Bind(r)
		res := g.resolver.Resolve(ctx, bound)

		// Token rotation must survive whatever response this request
		// produces, redirect included.
		if len(bound.PendingCookies()) > 0 {
			bound.WriteCookies(w)
			g.metrics.SessionsRefreshed.Inc()
			if res.Session != nil {
				g.bus.Publish(state.Event{Type: state.EventTokenRefreshed, Subject: res.Session.Subject.String()})
			}
		}

		protected := g.routes.Protected(path) || g.routes.Admin(path)
		if protected && res.Session == nil {
			g.metrics.GatewayDecisions.WithLabelValues(metrics.OutcomeLoginRedirect).Inc()
			http.Redirect(w, r, loginRedirect(g.routes.LoginPath, path), http.StatusFound)
			return
		}

		if g.routes.Admin(path) {
			if res.Err != nil {
				// Unverifiable is unauthorized: a failed profile or
				// revocation lookup never permits access.
				g.logger.WarnContext(ctx, "admin gate failing closed",
					"path", path,
					"error", res.Err,
				)
				g.redirectHome(w, r)
				return
			}
			if res.Profile == nil || !g.routes.RoleAllowed(res.Profile.Role) {
				g.redirectHome(w, r)
				return
			}
		}

		if res.Session != nil {
			ctx = requestcontext.WithUserID(ctx, res.Session.Subject)
			if res.Profile != nil {
				ctx = requestcontext.WithRole(ctx, res.Profile.Role)
			}
			r = r.WithContext(ctx)
		}

		g.metrics.GatewayDecisions.WithLabelValues(metrics.OutcomeAllow).Inc()
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) redirectHome(w http.ResponseWriter, r *http.Request) {
	g.metrics.GatewayDecisions.WithLabelValues(metrics.OutcomeHomeRedirect).Inc()
	http.Redirect(w, r, g.routes.HomePath, http.StatusFound)
}

// loginRedirect builds the login URL carrying the original path so the
// flow can return the user after authentication.
func loginRedirect(loginPath, originalPath string) string {
	return loginPath + "?redirectTo=" + url.QueryEscape(originalPath)
}
