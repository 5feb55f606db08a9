package handlers

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/auth"
	"github.com/isdelr/murmur/internal/forms"
	"github.com/isdelr/murmur/internal/services"
	"github.com/isdelr/murmur/internal/web"
)

// PageHandler serves the server-rendered pages.
type PageHandler struct {
	posts services.PostServiceProvider
	csrf  *auth.CSRFProtector
	tmpl  *template.Template
}

var _ HomeRenderer = (*PageHandler)(nil)

// NewPageHandler creates a new PageHandler.
func NewPageHandler(posts services.PostServiceProvider, csrf *auth.CSRFProtector, tmpl *template.Template) *PageHandler {
	return &PageHandler{posts: posts, csrf: csrf, tmpl: tmpl}
}

// Home handles GET /.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.RenderHome(w, r, http.StatusOK, nil)
}

// RenderHome renders the home page with errs next to their fields.
func (h *PageHandler) RenderHome(w http.ResponseWriter, r *http.Request, status int, errs forms.Errors) {
	page := web.HomePage{Errors: errs}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		page.User = &user
	}

	posts, err := h.posts.ListPosts(r.Context(), services.DefaultFeedLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load feed")
		http.Error(w, MsgInternal, http.StatusInternalServerError)
		return
	}
	page.Posts = posts

	if h.csrf != nil {
		if page.CSRFToken, err = h.csrf.GenerateToken(r); err != nil {
			log.Error().Err(err).Msg("Failed to generate CSRF token")
			http.Error(w, MsgInternal, http.StatusInternalServerError)
			return
		}
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "home.html", page); err != nil {
		log.Error().Err(err).Msg("Failed to render home page")
		http.Error(w, MsgInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// CSRFToken handles GET /api/v1/csrf.
func (h *PageHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrf.GenerateToken(r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate CSRF token")
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": MsgInternal})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz reports whether the database answers.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
