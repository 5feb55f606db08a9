// Package store persists users, sessions, posts and audit events.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/isdelr/murmur/internal/models"
)

var (
	// ErrNotFound is returned when a looked up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUsername is returned when a user insert violates username uniqueness.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned when a user insert violates email uniqueness.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserStore persists user accounts.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// InsertUser stores the user in a single statement. Uniqueness violations are
	// reported as ErrDuplicateUsername or ErrDuplicateEmail.
	InsertUser(ctx context.Context, user models.User) error
}

// PostStore persists posts.
type PostStore interface {
	InsertPost(ctx context.Context, post models.Post) error
	// ListPostsWithAuthor returns the newest posts first.
	ListPostsWithAuthor(ctx context.Context, limit int) ([]models.PostWithAuthor, error)
}

// SessionStore persists sessions keyed by the hash of their token.
type SessionStore interface {
	InsertSession(ctx context.Context, tokenHash string, session models.Session) error
	// GetSession returns the session stored under tokenHash. The returned session has an empty ID.
	GetSession(ctx context.Context, tokenHash string) (models.Session, error)
	UpdateSessionExpiry(ctx context.Context, tokenHash string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	// DeleteExpiredSessions removes every session expired at now and returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// EventStore persists audit events.
type EventStore interface {
	InsertEvent(ctx context.Context, event models.Event) error
	ListEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// StatsStore reports aggregate counts.
type StatsStore interface {
	// CountStats counts users, posts and the sessions still active at now.
	CountStats(ctx context.Context, now time.Time) (models.SiteStats, error)
}
