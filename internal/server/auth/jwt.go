// Package auth signs and verifies the short-lived access tokens. Tokens are
// stateless HS256 JWTs; nothing on the server is consulted to verify one.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenTTL applies when NewCodec gets a non-positive ttl.
	DefaultAccessTokenTTL = 15 * time.Minute
	TokenIssuer           = "livedesk"
	KindAccess            = "access"
)

// Claims carries the subject and token kind on top of the registered claims.
type Claims struct {
	SubjectID string `json:"subjectId"`
	Kind      string `json:"kind"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens with one symmetric secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec returns a Codec for secret. An empty secret wraps
// common.ErrConfigurationMissing.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret: %w", common.ErrConfigurationMissing)
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign mints an access token for userID. Every token gets a random jti, so
// two tokens for the same user in the same second still differ.
func (c *Codec) Sign(userID string) (string, error) {
	now := c.now()
	claims := Claims{
		SubjectID: userID,
		Kind:      KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

// Verify checks signature, algorithm, issuer, expiry and kind, and returns
// the subject. Errors are common.ErrInvalidSignature, common.ErrTokenExpired
// or common.ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", common.ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", common.ErrTokenExpired
		default:
			return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
		}
	}

	if !token.Valid || claims.Kind != KindAccess || claims.SubjectID == "" {
		return "", common.ErrInvalidToken
	}
	return claims.SubjectID, nil
}
