// Package content serves the publishing site's reading surface and the
// gated admin/studio endpoints. The catalog is an in-memory stand-in; the
// interesting part of these routes is who is allowed to reach them.
package content

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"pressroom/pkg/requestcontext"
)

// Article is a published piece as the reading surface exposes it.
type Article struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Body        string    `json:"body,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Views       int       `json:"views"`
}

// Catalog holds published articles.
type Catalog struct {
	mu       sync.RWMutex
	articles map[string]*Article
}

// NewCatalog builds an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{articles: make(map[string]*Article)}
}

// Put adds or replaces an article.
func (c *Catalog) Put(a *Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *a
	c.articles[a.Slug] = &copied
}

// List returns published articles, newest first, bodies omitted.
func (c *Catalog) List() []*Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Article, 0, len(c.articles))
	for _, a := range c.articles {
		copied := *a
		copied.Body = ""
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

// Get returns one article by slug and counts the view.
func (c *Catalog) Get(slug string) *Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.articles[slug]
	if !ok {
		return nil
	}
	a.Views++
	copied := *a
	return &copied
}

// Stats summarizes the catalog for the admin dashboard.
type Stats struct {
	Articles   int `json:"articles"`
	TotalViews int `json:"total_views"`
}

func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Articles: len(c.articles)}
	for _, a := range c.articles {
		s.TotalViews += a.Views
	}
	return s
}

// Handler serves the content routes.
type Handler struct {
	catalog *Catalog
	logger  *slog.Logger
}

// New creates a content Handler.
func New(catalog *Catalog, logger *slog.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// Register registers the public and gated content routes. The auth gateway
// wraps the router above this; these handlers trust the context it set.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Get("/articles", h.handleList)
	r.Get("/articles/{slug}", h.handleGet)
	r.Get("/admin", h.handleAdminHome)
	r.Get("/admin/stats", h.handleStats)
	r.Get("/admin/articles/new", h.handleNewArticleForm)
	r.Get("/studio", h.handleStudio)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, map[string]any{
		"site":     "pressroom",
		"articles": h.catalog.List(),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, h.catalog.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	a := h.catalog.Get(chi.URLParam(r, "slug"))
	if a == nil {
		http.Error(w, "article not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, r, a)
}

func (h *Handler) handleAdminHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.writeJSON(w, r, map[string]any{
		"user_id": requestcontext.UserID(ctx).String(),
		"role":    requestcontext.Role(ctx).String(),
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, h.catalog.Stats())
}

func (h *Handler) handleNewArticleForm(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, map[string]any{
		"form":   "new_article",
		"author": requestcontext.UserID(r.Context()).String(),
	})
}

func (h *Handler) handleStudio(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, map[string]any{
		"area":    "studio",
		"user_id": requestcontext.UserID(r.Context()).String(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}
