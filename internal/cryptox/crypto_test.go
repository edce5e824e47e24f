package cryptox

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testKey)
	require.NoError(t, err)
	return e
}

// flipHex replaces the hex digit at i with a different, lower-case digit.
func flipHex(s string, i int) string {
	repl := byte('0')
	if s[i] == '0' {
		repl = '1'
	}
	return s[:i] + string(repl) + s[i+1:]
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	e := newTestEngine(t)

	for _, p := range []string{"", "a", "secret-value", strings.Repeat("x", 4096), "ünïcødé ✓"} {
		blob, err := e.Encrypt(p)
		require.NoError(t, err)

		got, err := e.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestEncrypt_FreshIVEveryCall(t *testing.T) {
	e := newTestEngine(t)

	a, err := e.Encrypt("same")
	require.NoError(t, err)
	b, err := e.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, strings.Split(a, Separator)[0], strings.Split(b, Separator)[0])
}

func TestEncrypt_Shape(t *testing.T) {
	e := newTestEngine(t)

	blob, err := e.Encrypt("hello")
	require.NoError(t, err)

	parts := strings.Split(blob, Separator)
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], IVSize*2)
	assert.Len(t, parts[1], TagSize*2)
	assert.Len(t, parts[2], len("hello")*2)
}

func TestDecrypt_TamperDetected(t *testing.T) {
	e := newTestEngine(t)

	blob, err := e.Encrypt("top secret payload")
	require.NoError(t, err)
	parts := strings.Split(blob, Separator)

	// every hex character of the tag and the ciphertext
	for seg := 1; seg <= 2; seg++ {
		for i := range parts[seg] {
			tampered := append([]string(nil), parts...)
			tampered[seg] = flipHex(parts[seg], i)

			got, err := e.Decrypt(strings.Join(tampered, Separator))
			if !errors.Is(err, ErrAuthenticationFailure) {
				t.Fatalf("segment %d char %d: want ErrAuthenticationFailure, got %v", seg, i, err)
			}
			if got != "" {
				t.Fatalf("segment %d char %d: plaintext leaked on failure: %q", seg, i, got)
			}
		}
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	e := newTestEngine(t)

	blob, err := e.Encrypt("x")
	require.NoError(t, err)
	parts := strings.Split(blob, Separator)

	tests := []struct {
		name string
		blob string
	}{
		{"empty", ""},
		{"two segments", parts[0] + ":" + parts[1]},
		{"four segments", blob + ":00"},
		{"non-hex iv", "zz" + parts[0][2:] + ":" + parts[1] + ":" + parts[2]},
		{"short iv", parts[0][:8] + ":" + parts[1] + ":" + parts[2]},
		{"short tag", parts[0] + ":" + parts[1][:8] + ":" + parts[2]},
		{"non-hex ciphertext", parts[0] + ":" + parts[1] + ":xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Decrypt(tt.blob)
			assert.ErrorIs(t, err, ErrMalformedCiphertext)
		})
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	e := newTestEngine(t)
	blob, err := e.Encrypt("value")
	require.NoError(t, err)

	otherKey, err := GenerateKey()
	require.NoError(t, err)
	other, err := NewEngine(otherKey)
	require.NoError(t, err)

	_, err = other.Decrypt(blob)
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
}

func TestNewEngine_KeyValidation(t *testing.T) {
	_, err := NewEngine("")
	assert.ErrorIs(t, err, common.ErrConfigurationMissing)

	_, err = NewEngine("not-hex")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewEngine("00112233")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)

	assert.Len(t, a, KeySize*2)
	assert.NotEqual(t, a, b)

	_, err = NewEngine(a)
	assert.NoError(t, err)
}
