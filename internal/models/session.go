package models

import "time"

// LoginSession is the server-side record behind the session cookie.
type LoginSession struct {
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its lifetime at now.
func (s *LoginSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
