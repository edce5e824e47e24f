package cryptox

import (
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"golang.org/x/crypto/argon2"
)

// argon2id parameters (RFC 9106 second recommended option).
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32

	SaltSize = 32
)

// HashPassword derives an argon2id hash of password under a new random salt.
func HashPassword(password string) (hash, salt []byte, err error) {
	salt = common.GenerateRandByteArray(SaltSize)
	if salt == nil {
		return nil, nil, errors.New("generate salt")
	}
	return derive(password, salt), salt, nil
}

// VerifyPassword reports whether password hashes to expected under salt.
// The comparison is constant time.
func VerifyPassword(password string, salt, expected []byte) bool {
	candidate := derive(password, salt)
	defer common.WipeByteArray(candidate)
	return subtle.ConstantTimeCompare(candidate, expected) == 1
}

func derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}
