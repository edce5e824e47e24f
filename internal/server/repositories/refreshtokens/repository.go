// Package refreshtokens declares the server-side repository contract for
// refresh tokens and its PostgreSQL and Redis implementations.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/server/models"
)

// Repository defines operations for issuing, retrieving, rotating and
// revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token. A duplicate token string yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find looks up a refresh token by its opaque token string.
	// Implementations return common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string. Deleting a
	// non-existent token is not an error.
	Delete(ctx context.Context, token string) error

	// Rotate atomically consumes oldToken and stores next in its place for
	// the same user, returning that user id. If oldToken is absent the
	// result is common.ErrorNotFound; if it expired at or before now it is
	// deleted, next is not stored and the result is
	// common.ErrRefreshTokenExpired. next.UserID is filled in.
	Rotate(ctx context.Context, oldToken string, next *models.RefreshToken, now time.Time) (string, error)

	// DeleteByUser removes every token of userID in one atomic step and
	// returns how many were removed.
	DeleteByUser(ctx context.Context, userID string) (int64, error)

	// DeleteExpired removes tokens with expires_at <= now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
