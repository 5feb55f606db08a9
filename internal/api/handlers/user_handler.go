package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/auth"
	"github.com/isdelr/murmur/internal/services"
	"github.com/isdelr/murmur/internal/store"
)

// UserHandler handles HTTP requests for the current user.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// GetMe retrieves the currently authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	user, err := h.service.GetUserByID(r.Context(), current.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		log.Error().Err(err).Str("user_id", current.ID).Msg("Failed to load current user")
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": MsgInternal})
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
