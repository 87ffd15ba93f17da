package handler

import (
	"net/http"

	"pressroom/internal/auth/state"
)

// handleSignOut ends the session. The access token is denylisted for its
// remaining lifetime, so a copy of it stops working immediately instead of
// riding out its expiry. Cookie clearing proceeds even when the provider
// call fails; the browser must never stay signed in because the provider
// is down.
func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bound := h.identity.Bind(r)

	sess, err := bound.Session(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "session resolution failed during sign-out", "error", err)
	}
	if sess != nil && sess.TokenID != "" {
		if ttl := sess.ExpiresAt.Sub(h.now()); ttl > 0 {
			if err := h.revoked.Revoke(ctx, sess.TokenID, ttl); err != nil {
				h.logger.ErrorContext(ctx, "failed to revoke access token", "error", err, "token_id", sess.TokenID)
			}
		}
	}

	if err := bound.SignOut(ctx); err != nil {
		h.logger.WarnContext(ctx, "provider sign-out failed", "error", err)
	}
	bound.WriteCookies(w)

	h.bus.Publish(state.Event{Type: state.EventSignedOut})
	h.metrics.SignOuts.Inc()

	http.Redirect(w, r, h.routes.HomePath, http.StatusSeeOther)
}
