// Package cryptox holds the cryptographic primitives used by the server:
// the AES-256-GCM engine that seals configuration values at rest and the
// argon2id password hashing used by the credential check.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/livedesk/internal/common"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the GCM nonce length used for every sealed value.
	IVSize = 16
	// TagSize is the GCM authentication tag length.
	TagSize = 16

	// Separator joins the three hex segments of a sealed value.
	Separator = ":"
)

var (
	// ErrMalformedCiphertext means the sealed value does not have the
	// iv:tag:ciphertext shape or one of its segments is not valid hex.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	// ErrAuthenticationFailure means the GCM tag check failed: wrong key or
	// tampered data.
	ErrAuthenticationFailure = errors.New("ciphertext authentication failed")
	// ErrInvalidKey is returned for a master key of the wrong size or encoding.
	ErrInvalidKey = errors.New("invalid encryption key")
)

// Engine seals and opens string values with a single master key.
//
// A sealed value has the form
//
//	<ivHex>:<authTagHex>:<ciphertextHex>
//
// The IV is drawn from crypto/rand on every Encrypt call and cannot be
// supplied by the caller. Engine is safe for concurrent use.
type Engine struct {
	aead cipher.AEAD
}

// NewEngine builds an Engine from a hex-encoded 32-byte key. An empty key
// yields common.ErrConfigurationMissing so callers can abort startup.
func NewEngine(keyHex string) (*Engine, error) {
	keyHex = strings.TrimSpace(keyHex)
	if keyHex == "" {
		return nil, fmt.Errorf("master key: %w", common.ErrConfigurationMissing)
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex", ErrInvalidKey)
	}
	defer common.WipeByteArray(key)

	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, err
	}

	return &Engine{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random IV.
func (e *Engine) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("iv generation: %w", err)
	}

	// Seal appends the tag to the ciphertext.
	sealed := e.aead.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	return strings.Join([]string{
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ct),
	}, Separator), nil
}

// Decrypt opens a value produced by Encrypt. It returns
// ErrMalformedCiphertext for a structurally invalid blob and
// ErrAuthenticationFailure when the tag does not verify. No plaintext is
// returned on failure.
func (e *Engine) Decrypt(blob string) (string, error) {
	parts := strings.Split(blob, Separator)
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: want 3 segments, got %d", ErrMalformedCiphertext, len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != IVSize {
		return "", fmt.Errorf("%w: bad iv", ErrMalformedCiphertext)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != TagSize {
		return "", fmt.Errorf("%w: bad auth tag", ErrMalformedCiphertext)
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext", ErrMalformedCiphertext)
	}

	plaintext, err := e.aead.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", ErrAuthenticationFailure
	}

	return string(plaintext), nil
}

// GenerateKey returns a new random master key, hex encoded, suitable for
// NewEngine. It is a provisioning helper and is not used on request paths.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("key generation: %w", err)
	}
	defer common.WipeByteArray(key)
	return hex.EncodeToString(key), nil
}
