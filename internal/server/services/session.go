// Package services contains server-side business logic: the session
// lifecycle (access + refresh tokens), user registration and login, and the
// sealed secret configuration store.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/logging"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AccessTokenCodec is implemented by auth.Codec.
type AccessTokenCodec interface {
	Sign(userID string) (string, error)
	Verify(token string) (string, error)
}

// RefreshTokens is implemented by RefreshTokenStore.
type RefreshTokens interface {
	Issue(ctx context.Context, userID string) (string, error)
	Verify(ctx context.Context, token string) (string, error)
	Rotate(ctx context.Context, token string) (userID, next string, err error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID string) (int64, error)
}

// SessionService orchestrates login, refresh and logout.
//
// Callers only ever see common.ErrorUnauthorized for a bad token, whatever
// the cause; the cause is logged. Storage failures surface as
// common.ErrorInternal.
type SessionService struct {
	codec  AccessTokenCodec
	tokens RefreshTokens
	logger logging.Logger
}

func NewSessionService(codec AccessTokenCodec, tokens RefreshTokens, logger logging.Logger) *SessionService {
	return &SessionService{
		codec:  codec,
		tokens: tokens,
		logger: logger.With("component", "sessions"),
	}
}

// Login issues a fresh token pair for an already authenticated user.
func (s *SessionService) Login(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.codec.Sign(userID)
	if err != nil {
		s.logger.Error(ctx, "sign access token", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	refresh, err := s.tokens.Issue(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "issue refresh token", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates refreshToken: the presented token stops working and a
// new pair is returned. The access token is signed before the refresh token
// is consumed, so a signing failure leaves the presented token usable.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrorUnauthorized
	}

	owner, err := s.tokens.Verify(ctx, refreshToken)
	if err != nil {
		return nil, s.refreshFailure(ctx, err)
	}

	access, err := s.codec.Sign(owner)
	if err != nil {
		s.logger.Error(ctx, "sign access token", "user_id", owner, "error", err)
		return nil, common.ErrorInternal
	}

	userID, next, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, s.refreshFailure(ctx, err)
	}
	if userID != owner {
		s.logger.Error(ctx, "refresh token changed owner during rotation", "user_id", owner, "rotated_for", userID)
		return nil, common.ErrorInternal
	}

	s.logger.Debug(ctx, "refresh token rotated", "user_id", userID)
	return &TokenPair{AccessToken: access, RefreshToken: next}, nil
}

func (s *SessionService) refreshFailure(ctx context.Context, err error) error {
	if isTokenRejection(err) {
		s.logger.Warn(ctx, "refresh rejected", "reason", err.Error())
		return common.ErrorUnauthorized
	}
	s.logger.Error(ctx, "rotate refresh token", "error", err)
	return common.ErrorInternal
}

// Logout revokes refreshToken. Unknown or expired tokens count as success.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		s.logger.Error(ctx, "revoke refresh token", "error", err)
		return common.ErrorInternal
	}
	return nil
}

// LogoutAll revokes every refresh token of userID.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.tokens.RevokeAll(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "revoke all refresh tokens", "user_id", userID, "error", err)
		return common.ErrorInternal
	}
	s.logger.Info(ctx, "logged out everywhere", "user_id", userID, "revoked", n)
	return nil
}

// Authenticate verifies an access token and returns its subject.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	userID, err := s.codec.Verify(accessToken)
	if err != nil {
		reason := "invalid"
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			reason = "expired"
		case errors.Is(err, common.ErrInvalidSignature):
			reason = "bad signature"
		}
		s.logger.Debug(ctx, "access token rejected", "reason", reason)
		return "", common.ErrorUnauthorized
	}
	return userID, nil
}
