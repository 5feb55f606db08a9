package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/isdelr/murmur/internal/models"
	"github.com/isdelr/murmur/internal/store"
)

// memoryStore implements every store interface for testing.
type memoryStore struct {
	mu       sync.Mutex
	users    map[string]models.User
	sessions map[string]models.Session
	posts    []models.Post
	events   []models.Event

	// Hooks to simulate storage failures and races.
	insertUserErr error
	insertPostErr error
	eventErr      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    make(map[string]models.User),
		sessions: make(map[string]models.Session),
	}
}

func (s *memoryStore) GetUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *memoryStore) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *memoryStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *memoryStore) InsertUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertUserErr != nil {
		return s.insertUserErr
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrDuplicateEmail
		}
		if existing.Username == user.Username {
			return store.ErrDuplicateUsername
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memoryStore) InsertPost(_ context.Context, post models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertPostErr != nil {
		return s.insertPostErr
	}
	s.posts = append(s.posts, post)
	return nil
}

func (s *memoryStore) ListPostsWithAuthor(_ context.Context, limit int) ([]models.PostWithAuthor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PostWithAuthor
	for i := len(s.posts) - 1; i >= 0 && len(out) < limit; i-- {
		post := s.posts[i]
		out = append(out, models.PostWithAuthor{Post: post, AuthorUsername: s.users[post.AuthorID].Username})
	}
	return out, nil
}

func (s *memoryStore) InsertSession(_ context.Context, tokenHash string, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.ID = ""
	session.Fresh = false
	s.sessions[tokenHash] = session
	return nil
}

func (s *memoryStore) GetSession(_ context.Context, tokenHash string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[tokenHash]
	if !ok {
		return models.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (s *memoryStore) UpdateSessionExpiry(_ context.Context, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[tokenHash]
	if !ok {
		return store.ErrNotFound
	}
	session.ExpiresAt = expiresAt
	s.sessions[tokenHash] = session
	return nil
}

func (s *memoryStore) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}

func (s *memoryStore) DeleteUserSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, k)
		}
	}
	return nil
}

func (s *memoryStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, session := range s.sessions {
		if session.IsExpiredAt(now) {
			delete(s.sessions, k)
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) InsertEvent(_ context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventErr != nil {
		return s.eventErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *memoryStore) ListEventsForUser(_ context.Context, userID string, limit int) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Event
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if e := s.events[i]; e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memoryStore) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// plainHasher is a fast PasswordHasher recording which hashes were verified.
type plainHasher struct {
	mu       sync.Mutex
	verified []string
}

var errHashFailed = errors.New("hash failed")

func (h *plainHasher) Hash(_ context.Context, password string) (string, error) {
	if password == "" {
		return "", errHashFailed
	}
	return "plain$" + password, nil
}

func (h *plainHasher) Verify(_ context.Context, encodedHash, password string) bool {
	h.mu.Lock()
	h.verified = append(h.verified, encodedHash)
	h.mu.Unlock()
	rest, ok := strings.CutPrefix(encodedHash, "plain$")
	return ok && rest == password
}

func (h *plainHasher) verifications() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.verified...)
}

// recordingPublisher captures live feed broadcasts.
type recordingPublisher struct {
	mu       sync.Mutex
	actions  []string
	payloads []any
}

func (p *recordingPublisher) Publish(action string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
	p.payloads = append(p.payloads, payload)
}
