package domain

import "time"

// Session is the server-side record of one live login. The session token is
// the liveness anchor for every bearer credential minted against it: delete
// the row and the credential stops working regardless of its own expiry.
type Session struct {
	Token     string // opaque, unguessable
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Live reports whether the session counts as active at the given instant.
func (s Session) Live(now time.Time) bool {
	return s.ExpiresAt.After(now)
}
