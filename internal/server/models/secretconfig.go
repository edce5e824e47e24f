package models

import "time"

// SecretConfigEntry is a persisted setting. When Sealed is true, Value holds
// an "iv:tag:ciphertext" blob produced by cryptox.Engine.
type SecretConfigEntry struct {
	Key         string
	Value       string
	Sealed      bool
	Description string
	UpdatedAt   time.Time
}
