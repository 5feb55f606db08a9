package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/auth"
	"github.com/isdelr/murmur/internal/forms"
	"github.com/isdelr/murmur/internal/metrics"
	"github.com/isdelr/murmur/internal/models"
	"github.com/isdelr/murmur/internal/store"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	SignUp(ctx context.Context, form forms.SignUpForm) (models.User, models.Session, error)
	SignIn(ctx context.Context, form forms.SignInForm) (models.User, models.Session, error)
	SignOut(ctx context.Context, session models.Session) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserService provides business logic for accounts and authentication.
//
// Field-level failures are returned as forms.Errors; any other error is an unexpected
// storage or crypto failure whose detail must not reach the client.
type UserService struct {
	users    store.UserStore
	hasher   auth.PasswordHasher
	sessions *auth.SessionManager
	events   EventServiceProvider
	now      func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserStore, hasher auth.PasswordHasher, sessions *auth.SessionManager, events EventServiceProvider) *UserService {
	return &UserService{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		events:   events,
		now:      time.Now,
	}
}

// SignUp registers a new user and opens a session for them.
func (s *UserService) SignUp(ctx context.Context, form forms.SignUpForm) (models.User, models.Session, error) {
	if _, err := s.users.GetUserByEmail(ctx, form.Email); err == nil {
		metrics.AuthAttempts.WithLabelValues("signup", metrics.OutcomeConflict).Inc()
		return models.User{}, models.Session{}, forms.FieldError("email", MsgEmailTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		metrics.AuthAttempts.WithLabelValues("signup", metrics.OutcomeError).Inc()
		return models.User{}, models.Session{}, fmt.Errorf("get user by email: %w", err)
	}

	if _, err := s.users.GetUserByUsername(ctx, form.Username); err == nil {
		metrics.AuthAttempts.WithLabelValues("signup", metrics.OutcomeConflict).Inc()
		return models.User{}, models.Session{}, forms.FieldError("username", MsgUsernameTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		metrics.AuthAttempts.WithLabelValues("signup", metrics.OutcomeError).Inc()
		return models.User{}, models.Session{}, fmt.Errorf("get user by username: %w", err)
	}

	userID, err := auth.GenerateUserID()
	if err != nil {
		return models.User{}, models.Session{}, fmt.Errorf("generate user id: %w", err)
	}

	passwordHash, err := s.hasher.Hash(ctx, form.Password)
	if err != nil {
		return models.User{}, models.Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           userID,
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: &passwordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	// The pre-checks above only give friendlier errors; the store's uniqueness
	// constraints decide concurrent sign-ups.
	if err := s.users.InsertUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			metrics.AuthAttempts.WithLabelValues("signup", metrics.OutcomeConflict).Inc()
			return models.User{}, models.Session{}, forms.FieldError("email", MsgEmailTaken)
		case errors.Is(err, store.ErrDuplicateUsername):
			metrics.AuthAttempts.WithLabelValues("signup", metrics.OutcomeConflict).Inc()
			return models.User{}, models.Session{}, forms.FieldError("username", MsgUsernameTaken)
		default:
			metrics.AuthAttempts.WithLabelValues("signup", metrics.OutcomeError).Inc()
			log.Error().Err(err).Str("username", form.Username).Msg("Failed to insert user")
			return models.User{}, models.Session{}, forms.FieldError("username", MsgCouldNotCreate)
		}
	}

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("signup", metrics.OutcomeError).Inc()
		return models.User{}, models.Session{}, fmt.Errorf("create session: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("signup", metrics.OutcomeSuccess).Inc()
	recordEvent(ctx, s.events, EventUserSignUp, "Account created", user.ID)
	log.Info().Str("user_id", user.ID).Msg("User signed up")

	user.PasswordHash = nil
	return user, session, nil
}

// SignIn verifies credentials and opens a session.
// Unknown users, users without a password and wrong passwords all produce the same error
// after the same amount of hashing work.
func (s *UserService) SignIn(ctx context.Context, form forms.SignInForm) (models.User, models.Session, error) {
	user, err := s.users.GetUserByUsername(ctx, form.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		metrics.AuthAttempts.WithLabelValues("signin", metrics.OutcomeError).Inc()
		return models.User{}, models.Session{}, fmt.Errorf("get user by username: %w", err)
	}
	found := err == nil && user.PasswordHash != nil

	passwordHash := auth.DummyHash
	if found {
		passwordHash = *user.PasswordHash
	}
	valid := s.hasher.Verify(ctx, passwordHash, form.Password)

	if !found || !valid {
		metrics.AuthAttempts.WithLabelValues("signin", metrics.OutcomeInvalid).Inc()
		log.Warn().Str("username", form.Username).Msg("Failed authentication attempt")
		return models.User{}, models.Session{}, forms.FieldError("password", MsgIncorrectCredentials)
	}

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("signin", metrics.OutcomeError).Inc()
		return models.User{}, models.Session{}, fmt.Errorf("create session: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("signin", metrics.OutcomeSuccess).Inc()
	recordEvent(ctx, s.events, EventUserSignIn, "Signed in", user.ID)

	// Don't hand the password hash to callers
	user.PasswordHash = nil
	return user, session, nil
}

// SignOut invalidates session.
func (s *UserService) SignOut(ctx context.Context, session models.Session) error {
	if session.ID == "" {
		return ErrUnauthorized
	}
	if err := s.sessions.InvalidateSession(ctx, session.ID); err != nil {
		return err
	}
	recordEvent(ctx, s.events, EventUserSignOut, "Signed out", session.UserID)
	return nil
}

// GetUserByID retrieves a single user by their ID, without the password hash.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = nil
	return user, nil
}
