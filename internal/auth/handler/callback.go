package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pressroom/internal/auth/models"
	"pressroom/internal/auth/state"
	"pressroom/pkg/domain"
	"pressroom/pkg/platform/sentinel"
)

const profileLookupTimeout = time.Second

// Callback outcome labels.
const (
	callbackSuccess        = "success"
	callbackNoCode         = "no_code"
	callbackExchangeFailed = "auth_failed"
	callbackNoSession      = "no_session"
)

// handleCallback completes the OAuth flow. The provider redirects here with
// a one-time code; we exchange it for tokens, queue the session cookies on a
// draft redirect, then pick the final destination once the profile is known.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.WarnContext(ctx, "callback hit without a code")
		h.callbackFailed(w, r, callbackNoCode)
		return
	}

	bound := h.identity.Bind(r)
	sess, err := bound.ExchangeCode(ctx, code)
	if err != nil {
		h.logger.ErrorContext(ctx, "code exchange failed", "error", err)
		h.callbackFailed(w, r, callbackExchangeFailed)
		return
	}
	if sess == nil {
		h.logger.WarnContext(ctx, "provider accepted the code but returned no session")
		h.callbackFailed(w, r, callbackNoSession)
		return
	}

	// The draft targets the admin area by default; cookies go on it now so
	// a later retarget cannot lose them.
	draft := newDraftRedirect(h.routes.AdminPath, http.StatusFound)
	draft.addCookies(bound.PendingCookies()...)

	if dest := h.resolveDestination(ctx, r, sess); dest != draft.target {
		draft.rebase(dest)
	}

	if err := h.profiles.RecordSignIn(ctx, sess.Subject, sess.AvatarURL, h.now()); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		h.logger.WarnContext(ctx, "failed to record sign-in", "error", err, "subject", sess.Subject.String())
	}

	h.bus.Publish(state.Event{Type: state.EventSignedIn, Subject: sess.Subject.String()})
	h.metrics.CallbackOutcomes.WithLabelValues(callbackSuccess).Inc()
	draft.write(w, r)
}

func (h *Handler) callbackFailed(w http.ResponseWriter, r *http.Request, reason string) {
	h.metrics.CallbackOutcomes.WithLabelValues(reason).Inc()
	http.Redirect(w, r, h.routes.LoginPath+"?error="+url.QueryEscape(reason), http.StatusFound)
}

// resolveDestination picks where a fresh sign-in lands: a sanitized
// redirectTo if the login flow carried one, the admin area for admins, the
// home page for everyone else. Editors can still reach the admin area
// through the gate; they just don't land there by default. Profile trouble
// falls through to home; it never blocks the sign-in itself.
func (h *Handler) resolveDestination(ctx context.Context, r *http.Request, sess *models.Session) string {
	if dest := sanitizeRedirect(r.URL.Query().Get("redirectTo")); dest != "" {
		return dest
	}

	fctx, cancel := context.WithTimeout(ctx, profileLookupTimeout)
	defer cancel()

	prof, err := h.profiles.FindByID(fctx, sess.Subject)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			h.logger.WarnContext(ctx, "profile lookup failed after sign-in", "error", err, "subject", sess.Subject.String())
		}
		return h.routes.HomePath
	}
	if prof.Role == domain.RoleAdmin {
		return h.routes.AdminPath
	}
	return h.routes.HomePath
}

// sanitizeRedirect admits only same-origin relative paths. Anything that
// could leave the site (absolute URLs, scheme-relative "//", backslash
// tricks) is discarded.
func sanitizeRedirect(raw string) string {
	if raw == "" || raw[0] != '/' {
		return ""
	}
	if strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return ""
	}
	return raw
}
