package auth

import (
	"net/http"
	"time"

	"github.com/isdelr/murmur/internal/models"
)

// CookieAttributes are the transport attributes of a cookie directive.
type CookieAttributes struct {
	Path     string
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	Expires  time.Time
	// MaxAge follows net/http semantics: negative deletes the cookie, zero omits the attribute.
	MaxAge int
}

// CookieDirective instructs the client to set or clear its session cookie.
type CookieDirective struct {
	Name       string
	Value      string
	Attributes CookieAttributes
}

// HTTPCookie converts the directive to a net/http cookie.
func (d CookieDirective) HTTPCookie() *http.Cookie {
	return &http.Cookie{
		Name:     d.Name,
		Value:    d.Value,
		Path:     d.Attributes.Path,
		HttpOnly: d.Attributes.HTTPOnly,
		Secure:   d.Attributes.Secure,
		SameSite: d.Attributes.SameSite,
		Expires:  d.Attributes.Expires,
		MaxAge:   d.Attributes.MaxAge,
	}
}

func (m *SessionManager) cookieAttributes() CookieAttributes {
	return CookieAttributes{
		Path:     "/",
		HTTPOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateSessionCookie returns the directive that hands session to the client.
func (m *SessionManager) CreateSessionCookie(session models.Session) CookieDirective {
	attrs := m.cookieAttributes()
	attrs.Expires = session.ExpiresAt
	return CookieDirective{Name: m.cfg.CookieName, Value: session.ID, Attributes: attrs}
}

// CreateBlankSessionCookie returns the directive that clears the session cookie.
func (m *SessionManager) CreateBlankSessionCookie() CookieDirective {
	attrs := m.cookieAttributes()
	attrs.Expires = time.Unix(0, 0).UTC()
	attrs.MaxAge = -1
	return CookieDirective{Name: m.cfg.CookieName, Value: "", Attributes: attrs}
}
