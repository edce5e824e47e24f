// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. The session core only ever looks at ID.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
}
