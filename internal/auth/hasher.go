// Package auth implements password hashing, session lifecycle and request authentication.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// argon2id cost parameters.
const (
	argon2Time    = 2     // iterations
	argon2Memory  = 19456 // KiB, 19 MiB
	argon2Threads = 1     // parallelism
	argon2SaltLen = 16    // salt length in bytes
	argon2KeyLen  = 32    // output length in bytes

	// maxArgon2Memory bounds the memory a stored hash may ask for (256 MiB).
	maxArgon2Memory = 256 * 1024
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// DummyHash is a well-formed hash with the production cost parameters that matches no password.
// Verifying against it costs the same as verifying a real hash.
var DummyHash = encodeHash(make([]byte, argon2SaltLen), make([]byte, argon2KeyLen))

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a self-describing hash of the password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify reports whether password matches encodedHash.
	// A missing or malformed hash never matches.
	Verify(ctx context.Context, encodedHash, password string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id.
// At most a fixed number of hash computations run at once.
type Argon2idHasher struct {
	sem *semaphore.Weighted
}

var _ PasswordHasher = (*Argon2idHasher)(nil)

// NewArgon2idHasher creates a hasher allowing concurrency simultaneous computations.
// A non-positive concurrency defaults to GOMAXPROCS.
func NewArgon2idHasher(concurrency int) *Argon2idHasher {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Argon2idHasher{sem: semaphore.NewWeighted(int64(concurrency))}
}

func encodeHash(salt, key []byte) string {
	// $argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// Hash produces an argon2id hash of the password in PHC string format.
func (h *Argon2idHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", oops.Code("AUTH_EMPTY_PASSWORD").Wrap(ErrEmptyPassword)
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}
	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	h.sem.Release(1)

	return encodeHash(salt, key), nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(ctx context.Context, encodedHash, password string) bool {
	params, err := decodeHash(encodedHash)
	if err != nil {
		log.Debug().Err(err).Msg("Rejecting malformed password hash")
		return false
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(password), params.salt, params.time, params.memory, params.threads, uint32(len(params.key)))
	h.sem.Release(1)

	return subtle.ConstantTimeCompare(computed, params.key) == 1
}

type hashParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeHash(encodedHash string) (hashParams, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return hashParams{}, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return hashParams{}, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return hashParams{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return hashParams{}, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return hashParams{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if memory == 0 || memory > maxArgon2Memory || time == 0 || threads == 0 || threads > 255 {
		return hashParams{}, oops.Code("AUTH_INVALID_HASH").
			Errorf("hash parameters out of range: m=%d,t=%d,p=%d", memory, time, threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return hashParams{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return hashParams{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1024 {
		return hashParams{}, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}

	return hashParams{
		memory:  memory,
		time:    time,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}
