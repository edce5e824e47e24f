package secretconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/dbx"
	"github.com/dmitrijs2005/livedesk/internal/server/models"
)

// PostgresRepository implements Repository over the secret_config table.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, e *models.SecretConfigEntry) error {
	query := `
		INSERT INTO secret_config (key, value, sealed, description, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			sealed = EXCLUDED.sealed,
			description = COALESCE(NULLIF(EXCLUDED.description, ''), secret_config.description),
			updated_at = EXCLUDED.updated_at
		RETURNING description, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, e.Key, e.Value, e.Sealed, e.Description).
		Scan(&e.Description, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, key string) (*models.SecretConfigEntry, error) {
	query := `
		SELECT key, value, sealed, description, updated_at
		FROM secret_config
		WHERE key = $1
	`
	e := &models.SecretConfigEntry{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(&e.Key, &e.Value, &e.Sealed, &e.Description, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	query := `
		DELETE FROM secret_config
		WHERE key = $1
	`
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.SecretConfigEntry, error) {
	query := `
		SELECT key, value, sealed, description, updated_at
		FROM secret_config
		ORDER BY key
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var entries []*models.SecretConfigEntry
	for rows.Next() {
		e := &models.SecretConfigEntry{}
		if err := rows.Scan(&e.Key, &e.Value, &e.Sealed, &e.Description, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}
