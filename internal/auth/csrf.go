package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// CSRF token transport.
const (
	CSRFHeader    = "X-CSRF-Token"
	CSRFFormField = "csrf_token"

	anonymousBinding = "anon"
)

// ErrInvalidCSRFToken is returned when a CSRF token is malformed, expired or bound to another session.
var ErrInvalidCSRFToken = errors.New("invalid csrf token")

// CSRFClaims defines the CSRF token claims. Binding ties the token to the session it was issued for.
type CSRFClaims struct {
	Binding string `json:"bnd"`
	jwt.RegisteredClaims
}

// CSRFProtector issues and checks CSRF tokens for state-changing requests.
type CSRFProtector struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCSRFProtector creates a protector signing tokens with key.
func NewCSRFProtector(key []byte, ttl time.Duration) *CSRFProtector {
	return &CSRFProtector{key: key, ttl: ttl, now: time.Now}
}

func binding(r *http.Request) string {
	if session, ok := SessionFromContext(r.Context()); ok {
		return HashSessionToken(session.ID)
	}
	return anonymousBinding
}

// GenerateToken creates a CSRF token bound to the session of r.
func (p *CSRFProtector) GenerateToken(r *http.Request) (string, error) {
	now := p.now()
	claims := &CSRFClaims{
		Binding: binding(r),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.key)
}

// ValidateToken checks that tokenStr was issued for the session of r.
func (p *CSRFProtector) ValidateToken(r *http.Request, tokenStr string) error {
	claims := &CSRFClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return p.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCSRFToken, err)
	}
	if !token.Valid || claims.Binding != binding(r) {
		return ErrInvalidCSRFToken
	}
	return nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func sameOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

// Middleware protects unsafe methods. A request passes when its Origin header names this
// host, or, without an Origin header, when it carries a valid token in the X-CSRF-Token
// header or the csrf_token form field. It must run after the session middleware.
func (p *CSRFProtector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" {
			if !sameOrigin(origin, r.Host) {
				log.Warn().Str("origin", origin).Str("path", r.URL.Path).Msg("Rejected cross-origin request")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		tokenStr := r.Header.Get(CSRFHeader)
		if tokenStr == "" {
			tokenStr = r.PostFormValue(CSRFFormField)
		}
		if err := p.ValidateToken(r, tokenStr); err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected request with invalid CSRF token")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
