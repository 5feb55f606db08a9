package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/murmur/internal/auth"
	"github.com/isdelr/murmur/internal/forms"
	"github.com/isdelr/murmur/internal/models"
	"github.com/isdelr/murmur/internal/services"
	"github.com/isdelr/murmur/internal/store"
)

type userFixture struct {
	store    *memoryStore
	hasher   *plainHasher
	sessions *auth.SessionManager
	svc      *services.UserService
}

func newUserFixture(t *testing.T) userFixture {
	t.Helper()
	st := newMemoryStore()
	hasher := &plainHasher{}
	sessions := auth.NewSessionManager(st, auth.SessionConfig{})
	svc := services.NewUserService(st, hasher, sessions, services.NewEventService(st))
	return userFixture{store: st, hasher: hasher, sessions: sessions, svc: svc}
}

func aliceSignUp() forms.SignUpForm {
	return forms.SignUpForm{Username: "alice", Email: "a@x.io", Password: "correcthorse"}
}

func requireFieldError(t *testing.T, err error, field, message string) {
	t.Helper()
	var fe forms.Errors
	require.True(t, errors.As(err, &fe), "expected forms.Errors, got %v", err)
	assert.Equal(t, forms.Errors{field: {message}}, fe)
}

func TestUserService_AliceScenario(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, session, err := f.svc.SignUp(ctx, aliceSignUp())
	require.NoError(t, err)
	assert.Len(t, user.ID, 16)
	assert.Nil(t, user.PasswordHash)
	assert.Equal(t, user.ID, session.UserID)

	validated, err := f.sessions.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.UserID)

	signedIn, second, err := f.svc.SignIn(ctx, forms.SignInForm{Username: "alice", Password: "correcthorse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
	assert.NotEqual(t, session.ID, second.ID)

	_, _, err = f.svc.SignIn(ctx, forms.SignInForm{Username: "alice", Password: "wrong"})
	requireFieldError(t, err, "password", services.MsgIncorrectCredentials)

	_, _, err = f.svc.SignUp(ctx, forms.SignUpForm{Username: "alice2", Email: "a@x.io", Password: "correcthorse"})
	requireFieldError(t, err, "email", services.MsgEmailTaken)

	_, _, err = f.svc.SignUp(ctx, forms.SignUpForm{Username: "alice", Email: "b@x.io", Password: "correcthorse"})
	requireFieldError(t, err, "username", services.MsgUsernameTaken)

	require.NoError(t, f.svc.SignOut(ctx, session))
	_, err = f.sessions.ValidateSession(ctx, session.ID)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	// The second session is unaffected.
	_, err = f.sessions.ValidateSession(ctx, second.ID)
	assert.NoError(t, err)
}

func TestUserService_SignUp(t *testing.T) {
	t.Run("stores hashed password", func(t *testing.T) {
		f := newUserFixture(t)
		user, _, err := f.svc.SignUp(context.Background(), aliceSignUp())
		require.NoError(t, err)

		stored, err := f.store.GetUserByID(context.Background(), user.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.PasswordHash)
		assert.Equal(t, "plain$correcthorse", *stored.PasswordHash)
		assert.Equal(t, "a@x.io", stored.Email)
	})

	t.Run("email checked before username", func(t *testing.T) {
		f := newUserFixture(t)
		_, _, err := f.svc.SignUp(context.Background(), aliceSignUp())
		require.NoError(t, err)

		_, _, err = f.svc.SignUp(context.Background(), aliceSignUp())
		requireFieldError(t, err, "email", services.MsgEmailTaken)
	})

	t.Run("unique violation on insert maps to field errors", func(t *testing.T) {
		for _, tc := range []struct {
			name    string
			err     error
			field   string
			message string
		}{
			{"email", store.ErrDuplicateEmail, "email", services.MsgEmailTaken},
			{"username", store.ErrDuplicateUsername, "username", services.MsgUsernameTaken},
			{"other", errors.New("disk I/O error"), "username", services.MsgCouldNotCreate},
		} {
			t.Run(tc.name, func(t *testing.T) {
				f := newUserFixture(t)
				f.store.insertUserErr = tc.err

				_, _, err := f.svc.SignUp(context.Background(), aliceSignUp())
				requireFieldError(t, err, tc.field, tc.message)
				assert.Zero(t, f.store.sessionCount())
			})
		}
	})

	t.Run("records event", func(t *testing.T) {
		f := newUserFixture(t)
		user, _, err := f.svc.SignUp(context.Background(), aliceSignUp())
		require.NoError(t, err)

		events, err := f.store.ListEventsForUser(context.Background(), user.ID, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, services.EventUserSignUp, events[0].Type)
	})

	t.Run("event failure does not fail sign-up", func(t *testing.T) {
		f := newUserFixture(t)
		f.store.eventErr = errors.New("events unavailable")
		_, _, err := f.svc.SignUp(context.Background(), aliceSignUp())
		assert.NoError(t, err)
	})
}

func TestUserService_SignIn_DoesNotRevealAccounts(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.SignUp(ctx, aliceSignUp())
	require.NoError(t, err)

	// A user without a password, e.g. created by an external provider.
	require.NoError(t, f.store.InsertUser(ctx, models.User{ID: "nopassword", Username: "bob", Email: "bob@x.io"}))

	_, _, wrongPassword := f.svc.SignIn(ctx, forms.SignInForm{Username: "alice", Password: "nope-nope"})
	_, _, unknownUser := f.svc.SignIn(ctx, forms.SignInForm{Username: "mallory", Password: "nope-nope"})
	_, _, noPassword := f.svc.SignIn(ctx, forms.SignInForm{Username: "bob", Password: "nope-nope"})

	require.Error(t, wrongPassword)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	assert.Equal(t, wrongPassword.Error(), noPassword.Error())
	requireFieldError(t, unknownUser, "password", services.MsgIncorrectCredentials)

	// Every attempt pays for a hash verification.
	verified := f.hasher.verifications()
	require.Len(t, verified, 3)
	assert.Equal(t, "plain$correcthorse", verified[0])
	assert.Equal(t, auth.DummyHash, verified[1])
	assert.Equal(t, auth.DummyHash, verified[2])

	assert.Equal(t, 1, f.store.sessionCount(), "only the sign-up session exists")
}

func TestUserService_SignOut(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	err := f.svc.SignOut(ctx, models.Session{})
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	_, session, err := f.svc.SignUp(ctx, aliceSignUp())
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx, session))
	require.NoError(t, f.svc.SignOut(ctx, session), "signing out twice is harmless")
	assert.Zero(t, f.store.sessionCount())
}

func TestUserService_GetUserByID(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	user, _, err := f.svc.SignUp(ctx, aliceSignUp())
	require.NoError(t, err)

	got, err := f.svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Nil(t, got.PasswordHash)

	_, err = f.svc.GetUserByID(ctx, "missing")
	assert.Error(t, err)
}
