package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/murmur/internal/auth"
	"github.com/isdelr/murmur/internal/models"
)

func whoAmI(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		w.Write([]byte(user.Username))
		return
	}
	w.Write([]byte("anonymous"))
}

func TestSessionMiddleware(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	clock := newFakeClock()
	m := auth.NewSessionManager(st, auth.SessionConfig{TTL: time.Hour, Renew: true}, auth.WithClock(clock.Now))
	require.NoError(t, st.InsertUser(ctx, models.User{ID: "u1", Username: "alice", Email: "a@x.com"}))

	handler := m.Middleware(st)(http.HandlerFunc(whoAmI))

	serve := func(cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("no cookie is anonymous", func(t *testing.T) {
		rec := serve(nil)
		assert.Equal(t, "anonymous", rec.Body.String())
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("valid session attaches user", func(t *testing.T) {
		session, err := m.CreateSession(ctx, "u1")
		require.NoError(t, err)

		rec := serve(&http.Cookie{Name: m.CookieName(), Value: session.ID})
		assert.Equal(t, "alice", rec.Body.String())
		assert.Empty(t, rec.Result().Cookies(), "cookie is only rewritten when renewed")
	})

	t.Run("renewed session rewrites cookie", func(t *testing.T) {
		session, err := m.CreateSession(ctx, "u1")
		require.NoError(t, err)
		clock.Advance(45 * time.Minute)

		rec := serve(&http.Cookie{Name: m.CookieName(), Value: session.ID})
		assert.Equal(t, "alice", rec.Body.String())
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, session.ID, cookies[0].Value)
	})

	t.Run("stale cookie is cleared", func(t *testing.T) {
		rec := serve(&http.Cookie{Name: m.CookieName(), Value: "stale"})
		assert.Equal(t, "anonymous", rec.Body.String())
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})

	t.Run("session of unknown user is cleared", func(t *testing.T) {
		session, err := m.CreateSession(ctx, "ghost")
		require.NoError(t, err)
		rec := serve(&http.Cookie{Name: m.CookieName(), Value: session.ID})
		assert.Equal(t, "anonymous", rec.Body.String())
		require.Len(t, rec.Result().Cookies(), 1)
	})
}

func TestRequireAuth(t *testing.T) {
	handler := auth.RequireAuth(http.HandlerFunc(whoAmI))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/posts", nil)
	req = req.WithContext(auth.WithSession(req.Context(), models.Session{ID: "t", UserID: "u1"}, models.User{ID: "u1", Username: "alice"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}
