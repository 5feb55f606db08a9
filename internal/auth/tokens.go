package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"

	"github.com/samber/oops"
)

// Entropy of generated identifiers, in bytes.
const (
	SessionTokenBytes = 20 // 160 bits
	UserIDBytes       = 10 // 80 bits
)

var idEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// GenerateID returns a random lowercase base32 identifier carrying entropyBytes of randomness.
func GenerateID(entropyBytes int) (string, error) {
	b := make([]byte, entropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("AUTH_ID_GENERATE_FAILED").
			With("requested_bytes", entropyBytes).
			Wrap(err)
	}
	return idEncoding.EncodeToString(b), nil
}

// GenerateSessionToken creates an unguessable session token.
func GenerateSessionToken() (string, error) {
	return GenerateID(SessionTokenBytes)
}

// GenerateUserID creates a new opaque user identifier.
func GenerateUserID() (string, error) {
	return GenerateID(UserIDBytes)
}

// HashSessionToken computes the SHA256 hash of a session token.
// Only the hash is persisted, so a leaked sessions table cannot be replayed.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
