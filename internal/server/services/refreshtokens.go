package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/server/models"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/refreshtokens"
)

// DefaultRefreshTokenTTL is the refresh token lifetime when none is configured.
const DefaultRefreshTokenTTL = 30 * 24 * time.Hour

// RefreshTokenStore issues, verifies, rotates and revokes refresh tokens on
// top of a refreshtokens.Repository. It owns the token rows exclusively.
type RefreshTokenStore struct {
	repo     refreshtokens.Repository
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// NewRefreshTokenStore returns a store whose tokens live for ttl.
func NewRefreshTokenStore(repo refreshtokens.Repository, ttl time.Duration) *RefreshTokenStore {
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	return &RefreshTokenStore{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		newToken: func() (string, error) {
			return common.MakeRandHexString(common.RefreshTokenBytes)
		},
	}
}

func (s *RefreshTokenStore) mint() (*models.RefreshToken, error) {
	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	now := s.now()
	return &models.RefreshToken{
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}, nil
}

// Issue creates and persists a new token for userID.
func (s *RefreshTokenStore) Issue(ctx context.Context, userID string) (string, error) {
	t, err := s.mint()
	if err != nil {
		return "", err
	}
	t.UserID = userID

	if err := s.repo.Create(ctx, t); err != nil {
		return "", err
	}
	return t.Token, nil
}

// Verify returns the owner of token. An absent token yields
// common.ErrorNotFound; an expired one is deleted and yields
// common.ErrRefreshTokenExpired.
func (s *RefreshTokenStore) Verify(ctx context.Context, token string) (string, error) {
	t, err := s.repo.Find(ctx, token)
	if err != nil {
		return "", err
	}

	if t.Expired(s.now()) {
		if err := s.repo.Delete(ctx, token); err != nil {
			return "", err
		}
		return "", common.ErrRefreshTokenExpired
	}
	return t.UserID, nil
}

// Revoke deletes token. Revoking an unknown token is not an error.
func (s *RefreshTokenStore) Revoke(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, token)
}

// RevokeAll deletes every token of userID atomically and returns the count.
func (s *RefreshTokenStore) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}

// Rotate consumes token and issues its replacement for the same user. Of
// concurrent rotations of one token exactly one succeeds.
func (s *RefreshTokenStore) Rotate(ctx context.Context, token string) (userID, next string, err error) {
	t, err := s.mint()
	if err != nil {
		return "", "", err
	}

	userID, err = s.repo.Rotate(ctx, token, t, s.now())
	if err != nil {
		return "", "", err
	}
	return userID, t.Token, nil
}

// PurgeExpired removes all expired tokens.
func (s *RefreshTokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// isTokenRejection reports whether err means the presented refresh token is
// unusable, as opposed to a storage failure.
func isTokenRejection(err error) bool {
	return errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrRefreshTokenExpired)
}
