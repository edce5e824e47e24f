package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.Len(t, names, 3)

	for _, name := range names {
		b, err := Migrations.ReadFile(name)
		require.NoError(t, err)
		body := string(b)
		assert.True(t, strings.Contains(body, "-- +goose Up"), name)
		assert.True(t, strings.Contains(body, "-- +goose Down"), name)
	}
}

func TestMigrations_RefreshTokenSubjectIsOpaque(t *testing.T) {
	b, err := Migrations.ReadFile("00002_refresh_tokens.sql")
	require.NoError(t, err)
	body := string(b)

	assert.Contains(t, body, "user_id    TEXT NOT NULL,")
	assert.NotContains(t, body, "REFERENCES users")
}
