package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/cryptox"
	"github.com/dmitrijs2005/livedesk/internal/logging"
	"github.com/dmitrijs2005/livedesk/internal/server/models"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/users"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// UserService checks credentials and hands authenticated users over to the
// SessionService:
//   - Register: create a user and log them in
//   - Login: verify a password and mint tokens
type UserService struct {
	users    users.Repository
	sessions *SessionService
	logger   logging.Logger

	// dummySalt/dummyHash are verified against on unknown usernames so that
	// both paths cost one argon2 run.
	dummySalt []byte
	dummyHash []byte
}

// NewUserService constructs a UserService.
func NewUserService(repo users.Repository, sessions *SessionService, logger logging.Logger) (*UserService, error) {
	hash, salt, err := cryptox.HashPassword("livedesk-dummy-password")
	if err != nil {
		return nil, err
	}
	return &UserService{
		users:     repo,
		sessions:  sessions,
		logger:    logger.With("component", "users"),
		dummySalt: salt,
		dummyHash: hash,
	}, nil
}

// Register creates a user and returns a first token pair.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, *TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < MinPasswordLength {
		return nil, nil, common.ErrorInvalidArgument
	}

	hash, salt, err := cryptox.HashPassword(password)
	if err != nil {
		s.logger.Error(ctx, "hash password", "error", err)
		return nil, nil, common.ErrorInternal
	}

	user, err := s.users.Create(ctx, &models.User{UserName: username, PasswordHash: hash, Salt: salt})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "create user", "error", err)
		return nil, nil, common.ErrorInternal
	}

	pair, err := s.sessions.Login(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, pair, nil
}

// Login verifies username/password and returns a token pair. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.VerifyPassword(password, s.dummySalt, s.dummyHash)
			s.logger.Warn(ctx, "login rejected", "reason", "unknown user")
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "load user", "error", err)
		return nil, common.ErrorInternal
	}

	if !cryptox.VerifyPassword(password, user.Salt, user.PasswordHash) {
		s.logger.Warn(ctx, "login rejected", "reason", "bad password", "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	return s.sessions.Login(ctx, user.ID)
}
