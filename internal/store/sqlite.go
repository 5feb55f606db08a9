package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/isdelr/murmur/internal/models"
)

// SQLiteStore implements every store interface on top of a SQLite database.
// Timestamps are stored as unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ UserStore    = (*SQLiteStore)(nil)
	_ PostStore    = (*SQLiteStore)(nil)
	_ SessionStore = (*SQLiteStore)(nil)
	_ EventStore   = (*SQLiteStore)(nil)
	_ StatsStore   = (*SQLiteStore)(nil)
)

// NewSQLiteStore creates a store over an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

const userColumns = "id, username, email, password_hash, created_at"

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (models.User, error) {
	var (
		user      models.User
		createdAt int64
	)
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where+" = ?", arg)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByUsername retrieves a single user by their username, including the password hash.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.getUser(ctx, "username", username)
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, "email", email)
}

// InsertUser stores a new user.
func (s *SQLiteStore) InsertUser(ctx context.Context, user models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash, toMillis(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", classifyUserInsertError(err))
	}
	return nil
}

// classifyUserInsertError maps SQLite uniqueness violations on users to sentinel errors.
func classifyUserInsertError(err error) error {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) || liteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return err
	}
	msg := liteErr.Error()
	switch {
	case strings.Contains(msg, "users.email"):
		return errors.Join(ErrDuplicateEmail, err)
	case strings.Contains(msg, "users.username"):
		return errors.Join(ErrDuplicateUsername, err)
	default:
		return err
	}
}

// InsertPost stores a new post.
func (s *SQLiteStore) InsertPost(ctx context.Context, post models.Post) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (id, author_id, text_content, created_at) VALUES (?, ?, ?, ?)",
		post.ID, post.AuthorID, post.TextContent, toMillis(post.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// ListPostsWithAuthor retrieves the most recent posts joined with their author.
func (s *SQLiteStore) ListPostsWithAuthor(ctx context.Context, limit int) ([]models.PostWithAuthor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.author_id, p.text_content, p.created_at, u.username
		FROM posts p JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.PostWithAuthor{}
	for rows.Next() {
		var (
			p         models.PostWithAuthor
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.TextContent, &createdAt, &p.AuthorUsername); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.CreatedAt = fromMillis(createdAt)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// InsertSession stores a session under the hash of its token.
func (s *SQLiteStore) InsertSession(ctx context.Context, tokenHash string, session models.Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		tokenHash, session.UserID, toMillis(session.CreatedAt), toMillis(session.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by its token hash.
func (s *SQLiteStore) GetSession(ctx context.Context, tokenHash string) (models.Session, error) {
	var (
		session              models.Session
		createdAt, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, created_at, expires_at FROM sessions WHERE id = ?", tokenHash,
	).Scan(&session.UserID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, ErrNotFound
		}
		return models.Session{}, fmt.Errorf("query session: %w", err)
	}
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromMillis(expiresAt)
	return session, nil
}

// UpdateSessionExpiry moves the expiry of a session.
func (s *SQLiteStore) UpdateSessionExpiry(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET expires_at = ? WHERE id = ?", toMillis(expiresAt), tokenHash)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions removes all sessions of a user.
func (s *SQLiteStore) DeleteUserSessions(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all sessions expired at now.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

// InsertEvent stores an audit event.
func (s *SQLiteStore) InsertEvent(ctx context.Context, event models.Event) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.UserID, toMillis(event.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEventsForUser retrieves the most recent events of a user.
func (s *SQLiteStore) ListEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, level, message, user_id, created_at
		FROM events WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			event     models.Event
			createdAt int64
		)
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.CreatedAt = fromMillis(createdAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// CountStats counts users, posts and unexpired sessions.
func (s *SQLiteStore) CountStats(ctx context.Context, now time.Time) (models.SiteStats, error) {
	var stats models.SiteStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM sessions WHERE expires_at > ?)`, toMillis(now),
	).Scan(&stats.Users, &stats.Posts, &stats.ActiveSessions)
	if err != nil {
		return models.SiteStats{}, fmt.Errorf("count stats: %w", err)
	}
	return stats, nil
}
