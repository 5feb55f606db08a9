package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/isdelr/murmur/internal/models"
	"github.com/isdelr/murmur/internal/store"
)

// memoryStore implements store.SessionStore and store.UserStore for testing.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	users    map[string]models.User
	err      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sessions: make(map[string]models.Session),
		users:    make(map[string]models.User),
	}
}

func (s *memoryStore) InsertSession(_ context.Context, tokenHash string, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	session.ID = ""
	session.Fresh = false
	s.sessions[tokenHash] = session
	return nil
}

func (s *memoryStore) GetSession(_ context.Context, tokenHash string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Session{}, s.err
	}
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
	if s.err != nil {
		return s.err
	}
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

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
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
	s.users[user.ID] = user
	return nil
}

// fakeClock is a controllable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
