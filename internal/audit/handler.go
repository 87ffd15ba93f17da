package audit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultActivityLimit = 50

// Handler serves the activity trail to the admin dashboard.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates an activity Handler.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the activity route. The path sits under the admin prefix,
// so the gateway has already enforced the role requirement.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/activity", h.handleActivity)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := h.store.Recent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read activity trail", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(events); err != nil {
		h.logger.ErrorContext(ctx, "failed to write activity trail", "error", err)
	}
}
