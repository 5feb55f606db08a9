package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/forms"
)

// MsgInternal is shown when a request fails for reasons the client cannot fix.
const MsgInternal = "Something went wrong. Try again."

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if wantsJSON(r) {
		respondWithJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}

// HomeRenderer renders the home page, used to show form errors to browsers.
type HomeRenderer interface {
	RenderHome(w http.ResponseWriter, r *http.Request, status int, errs forms.Errors)
}

// respondWithFormErrors answers a rejected form submission with status 400.
func respondWithFormErrors(w http.ResponseWriter, r *http.Request, pages HomeRenderer, errs forms.Errors) {
	if wantsJSON(r) || pages == nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]forms.Errors{"errors": errs})
		return
	}
	pages.RenderHome(w, r, http.StatusBadRequest, errs)
}
