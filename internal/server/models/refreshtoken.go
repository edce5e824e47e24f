package models

import "time"

// RefreshToken is one outstanding refresh token. A row is valid while
// ExpiresAt is strictly in the future; rows are never updated in place.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is no longer valid at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
