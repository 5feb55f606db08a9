package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/auth"
	"github.com/isdelr/murmur/internal/forms"
	"github.com/isdelr/murmur/internal/services"
)

// AuthHandler handles sign-up, sign-in and logout.
type AuthHandler struct {
	service   services.UserServiceProvider
	sessions  *auth.SessionManager
	validator *forms.Validator
	pages     HomeRenderer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, sessions *auth.SessionManager, validator *forms.Validator, pages HomeRenderer) *AuthHandler {
	return &AuthHandler{service: service, sessions: sessions, validator: validator, pages: pages}
}

// SignIn handles POST /signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var form forms.SignInForm
	if errs := h.validator.Decode(r, &form); errs != nil {
		respondWithFormErrors(w, r, h.pages, errs)
		return
	}

	user, session, err := h.service.SignIn(r.Context(), form)
	if err != nil {
		h.fail(w, r, err, "Failed to sign in")
		return
	}

	http.SetCookie(w, h.sessions.CreateSessionCookie(session).HTTPCookie())
	if wantsJSON(r) {
		respondWithJSON(w, http.StatusOK, map[string]any{"user": user})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// SignUp handles POST /signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var form forms.SignUpForm
	if errs := h.validator.Decode(r, &form); errs != nil {
		respondWithFormErrors(w, r, h.pages, errs)
		return
	}

	user, session, err := h.service.SignUp(r.Context(), form)
	if err != nil {
		h.fail(w, r, err, "Failed to sign up")
		return
	}

	http.SetCookie(w, h.sessions.CreateSessionCookie(session).HTTPCookie())
	if wantsJSON(r) {
		respondWithJSON(w, http.StatusCreated, map[string]any{"user": user})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	if err := h.service.SignOut(r.Context(), session); err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			respondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		log.Error().Err(err).Str("user_id", session.UserID).Msg("Failed to sign out")
		respondWithError(w, r, http.StatusInternalServerError, MsgInternal)
		return
	}

	http.SetCookie(w, h.sessions.CreateBlankSessionCookie().HTTPCookie())
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// fail renders field errors as 400 and anything else as a generic 500.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var errs forms.Errors
	if errors.As(err, &errs) {
		respondWithFormErrors(w, r, h.pages, errs)
		return
	}
	log.Error().Err(err).Msg(msg)
	respondWithFormErrors(w, r, h.pages, forms.FieldError(forms.FormField, MsgInternal))
}
