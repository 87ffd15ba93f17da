// Package handler serves the auth surface: the login page, the OAuth
// callback, and sign-out.
package handler

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"pressroom/internal/auth/identity"
	"pressroom/internal/auth/state"
	"pressroom/internal/auth/store/revocation"
	"pressroom/internal/platform/config"
	"pressroom/internal/platform/metrics"
	"pressroom/internal/profile"
)

// Handler handles authentication endpoints.
type Handler struct {
	identity *identity.Client
	profiles profile.Store
	revoked  revocation.Store
	routes   config.Routes
	bus      *state.Bus
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an auth Handler.
func New(
	idc *identity.Client,
	profiles profile.Store,
	revoked revocation.Store,
	routes config.Routes,
	bus *state.Bus,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		identity: idc,
		profiles: profiles,
		revoked:  revoked,
		routes:   routes,
		bus:      bus,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get(h.routes.LoginPath, h.handleLogin)
	r.Get("/auth/callback", h.handleCallback)
	r.Get("/auth/session", h.handleSession)
	r.Post("/auth/signout", h.handleSignOut)
}
