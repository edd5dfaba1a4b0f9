package session

import "time"

// Session is one authenticated client context. Exactly one is created per
// successful authentication event; it is mutated only to extend ExpiresAt
// during refresh rotation and deleted on logout, password reset, or expiry.
type Session struct {
	ID        string
	UserID    string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}
