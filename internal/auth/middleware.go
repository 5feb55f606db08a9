package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/models"
	"github.com/isdelr/murmur/internal/store"
)

type contextKey string

const (
	sessionContextKey = contextKey("session")
	userContextKey    = contextKey("user")
)

// WithSession returns a context carrying the authenticated session and its user.
func WithSession(ctx context.Context, session models.Session, user models.User) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, session)
	return context.WithValue(ctx, userContextKey, user)
}

// SessionFromContext returns the session stored by the session middleware.
func SessionFromContext(ctx context.Context) (models.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(models.Session)
	return session, ok
}

// UserFromContext returns the authenticated user stored by the session middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// Middleware resolves the session cookie of every request. Valid sessions and their
// users are attached to the request context; stale cookies are cleared and renewed
// sessions get a fresh cookie. Requests without a valid session pass through anonymously.
func (m *SessionManager) Middleware(users store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(m.cfg.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			session, err := m.ValidateSession(ctx, cookie.Value)
			if err != nil {
				if errors.Is(err, ErrSessionNotFound) {
					http.SetCookie(w, m.CreateBlankSessionCookie().HTTPCookie())
				} else {
					log.Error().Err(err).Msg("Failed to validate session")
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(ctx, session.UserID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					http.SetCookie(w, m.CreateBlankSessionCookie().HTTPCookie())
				} else {
					log.Error().Err(err).Str("user_id", session.UserID).Msg("Failed to load session user")
				}
				next.ServeHTTP(w, r)
				return
			}

			if session.Fresh {
				http.SetCookie(w, m.CreateSessionCookie(session).HTTPCookie())
			}
			next.ServeHTTP(w, r.WithContext(WithSession(ctx, session, user)))
		})
	}
}

// RequireAuth rejects requests without an authenticated session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
