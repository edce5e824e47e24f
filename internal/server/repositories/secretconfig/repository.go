// Package secretconfig persists secret configuration entries in PostgreSQL
// or S3-compatible object storage.
package secretconfig

import (
	"context"

	"github.com/dmitrijs2005/livedesk/internal/server/models"
)

// Repository stores SecretConfigEntry rows keyed by Key. Values are stored
// as given; sealing happens above this layer.
type Repository interface {
	// Upsert creates or replaces the entry for e.Key and sets e.UpdatedAt.
	// An empty Description keeps the stored one.
	Upsert(ctx context.Context, e *models.SecretConfigEntry) error

	// Get returns common.ErrorNotFound when key is absent.
	Get(ctx context.Context, key string) (*models.SecretConfigEntry, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every entry ordered by key.
	List(ctx context.Context) ([]*models.SecretConfigEntry, error)
}
