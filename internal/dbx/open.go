package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig controls how Open waits for the database to come up.
type RetryConfig struct {
	MaxRetries  uint64
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetryConfig suits a database container that starts alongside the server.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  5,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     10 * time.Second,
	}
}

func (c RetryConfig) backoff() retry.Backoff {
	b := retry.NewExponential(c.InitialWait)
	b = retry.WithCappedDuration(c.MaxWait, b)
	return retry.WithMaxRetries(c.MaxRetries, b)
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open opens driver/dsn and pings it with exponential backoff. The pool is
// closed again if the database never answers.
func Open(ctx context.Context, driver, dsn string, cfg RetryConfig) (*sql.DB, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	err = retry.Do(ctx, cfg.backoff(), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}
