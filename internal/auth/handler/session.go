package handler

import (
	"encoding/json"
	"net/http"

	"pressroom/internal/auth/state"
)

// sessionView is what the site's header widget polls to decide which
// navigation to render.
type sessionView struct {
	SignedIn  bool   `json:"signed_in"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	AdminUI   bool   `json:"admin_ui"`
}

// handleSession resolves the caller's auth cell and returns it as JSON. The
// cell is scoped to this request; Start settles it synchronously and Close
// releases the bus subscription before the response goes out.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	bound := h.identity.Bind(r)

	cell := state.New(bound, h.profiles, h.logger)
	cell.Start(r.Context(), h.bus)
	defer cell.Close()

	view := sessionView{}
	if user, _ := cell.Snapshot(); user != nil {
		view = sessionView{
			SignedIn:  true,
			UserID:    user.ID.String(),
			Email:     user.Email,
			Role:      user.Role.String(),
			AvatarURL: user.AvatarURL,
			AdminUI:   cell.HasRole(h.routes.AllowedAdminRoles...),
		}
	}

	// A token rotation during resolution queued replacement cookies.
	bound.WriteCookies(w)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write session view", "error", err)
	}
}
