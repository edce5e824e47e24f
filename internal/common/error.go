// Package common defines shared constants and sentinel errors used across
// livedesk components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrorInvalidArgument rejects malformed input before it reaches storage.
	ErrorInvalidArgument = errors.New("invalid argument")

	// Service-level errors. ErrorUnauthorized is the only authentication
	// failure callers outside the services layer ever see.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Access token errors.
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")

	// Refresh token lifecycle errors.
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrConfigurationMissing is returned at startup when a required secret
	// (signing secret, master encryption key) is not provisioned.
	ErrConfigurationMissing = errors.New("required configuration missing")
)
