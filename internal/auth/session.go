package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/metrics"
	"github.com/isdelr/murmur/internal/models"
	"github.com/isdelr/murmur/internal/store"
)

// Session defaults.
const (
	DefaultSessionTTL        = 30 * 24 * time.Hour
	DefaultSessionCookieName = "auth_session"
)

// ErrSessionNotFound is returned for unknown, invalidated and expired sessions alike.
var ErrSessionNotFound = errors.New("session not found")

// SessionConfig controls session lifetime and the cookie carrying the token.
type SessionConfig struct {
	TTL time.Duration
	// Renew extends the expiry of sessions past half their lifetime on validation.
	Renew        bool
	CookieName   string
	SecureCookie bool
}

// SessionManager issues, validates and invalidates sessions.
type SessionManager struct {
	store store.SessionStore
	cfg   SessionConfig
	now   func() time.Time
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) { m.now = now }
}

// NewSessionManager creates a SessionManager persisting to sessions.
func NewSessionManager(sessions store.SessionStore, cfg SessionConfig, opts ...SessionOption) *SessionManager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookieName
	}
	m := &SessionManager{store: sessions, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CookieName returns the name of the session cookie.
func (m *SessionManager) CookieName() string {
	return m.cfg.CookieName
}

func (m *SessionManager) clock() time.Time {
	// The store keeps millisecond precision.
	return m.now().UTC().Truncate(time.Millisecond)
}

// CreateSession issues a new session for userID.
func (m *SessionManager) CreateSession(ctx context.Context, userID string) (models.Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return models.Session{}, err
	}

	now := m.clock()
	session := models.Session{
		ID:        token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
		Fresh:     true,
	}
	if err := m.store.InsertSession(ctx, HashSessionToken(token), session); err != nil {
		return models.Session{}, fmt.Errorf("create session: %w", err)
	}

	metrics.SessionsCreated.Inc()
	return session, nil
}

// ValidateSession returns the active session identified by token.
// Expired sessions are deleted and reported as ErrSessionNotFound.
func (m *SessionManager) ValidateSession(ctx context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, ErrSessionNotFound
	}

	tokenHash := HashSessionToken(token)
	session, err := m.store.GetSession(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}

	now := m.clock()
	if session.IsExpiredAt(now) {
		if err := m.store.DeleteSession(ctx, tokenHash); err != nil {
			log.Warn().Err(err).Str("user_id", session.UserID).Msg("Failed to delete expired session")
		} else {
			metrics.SessionsExpired.Inc()
		}
		return models.Session{}, ErrSessionNotFound
	}

	session.ID = token
	if m.cfg.Renew && session.ExpiresAt.Sub(now) < m.cfg.TTL/2 {
		expiresAt := now.Add(m.cfg.TTL)
		if err := m.store.UpdateSessionExpiry(ctx, tokenHash, expiresAt); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return models.Session{}, ErrSessionNotFound
			}
			return models.Session{}, fmt.Errorf("renew session: %w", err)
		}
		session.ExpiresAt = expiresAt
		session.Fresh = true
	}

	return session, nil
}

// InvalidateSession removes the session identified by token. It is idempotent.
func (m *SessionManager) InvalidateSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.DeleteSession(ctx, HashSessionToken(token)); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	metrics.SessionsInvalidated.Inc()
	return nil
}

// InvalidateUserSessions removes every session of userID.
func (m *SessionManager) InvalidateUserSessions(ctx context.Context, userID string) error {
	if err := m.store.DeleteUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("invalidate user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions purges all expired sessions and returns how many were removed.
func (m *SessionManager) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpiredSessions(ctx, m.clock())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	metrics.SessionsExpired.Add(float64(n))
	return n, nil
}
