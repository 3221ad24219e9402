package domain

import "time"

// Session is a server-side login. Only the token fingerprint is stored;
// the raw token lives in the browser cookie.
type Session struct {
	ID        string
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is dead at now. A session expiring
// exactly at now is already dead.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionUser is the resolved identity attached to a request.
type SessionUser struct {
	Profile
	ExpiresAt time.Time `json:"expires_at"`
}
