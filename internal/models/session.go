package models

import "time"

// Session is an authenticated browser session.
//
// ID holds the plaintext token and is only populated on the values handed out by the
// session manager; the store never sees it.
type Session struct {
	ID        string    `json:"-"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	// Fresh is set when the session was just created or its expiry was extended,
	// meaning the client cookie must be (re)written.
	Fresh bool `json:"-"`
}

// IsExpiredAt reports whether the session has expired at t.
func (s Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}
