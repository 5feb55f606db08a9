package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/auth"
	"github.com/isdelr/murmur/internal/forms"
	"github.com/isdelr/murmur/internal/services"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service   services.PostServiceProvider
	validator *forms.Validator
	pages     HomeRenderer
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider, validator *forms.Validator, pages HomeRenderer) *PostHandler {
	return &PostHandler{service: service, validator: validator, pages: pages}
}

// Create handles POST /posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var form forms.PostForm
	if errs := h.validator.Decode(r, &form); errs != nil {
		respondWithFormErrors(w, r, h.pages, errs)
		return
	}

	post, err := h.service.CreatePost(r.Context(), user, form)
	if err != nil {
		var errs forms.Errors
		switch {
		case errors.As(err, &errs):
			respondWithFormErrors(w, r, h.pages, errs)
		case errors.Is(err, services.ErrUnauthorized):
			respondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		default:
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create post")
			respondWithError(w, r, http.StatusInternalServerError, MsgInternal)
		}
		return
	}

	if wantsJSON(r) {
		respondWithJSON(w, http.StatusCreated, post)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GetAll handles GET /api/v1/posts.
func (h *PostHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = services.DefaultFeedLimit
	}

	posts, err := h.service.ListPosts(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve posts")
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve posts"})
		return
	}
	respondWithJSON(w, http.StatusOK, posts)
}
