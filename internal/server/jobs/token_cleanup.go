// Package jobs holds background maintenance tasks run by the server.
package jobs

import (
	"context"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/logging"
)

// TokenPurger deletes expired refresh tokens. Implemented by
// services.RefreshTokenStore.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// DefaultCleanupTimeout bounds one purge run.
const DefaultCleanupTimeout = time.Minute

// TokenCleanup periodically removes expired refresh tokens that nobody
// presented again (presented ones are deleted on verification).
type TokenCleanup struct {
	purger   TokenPurger
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger
}

func NewTokenCleanup(purger TokenPurger, interval time.Duration, logger logging.Logger) *TokenCleanup {
	return &TokenCleanup{
		purger:   purger,
		interval: interval,
		timeout:  DefaultCleanupTimeout,
		logger:   logger.With("job", "token_cleanup"),
	}
}

// Run purges once immediately and then every interval until ctx is done.
// A non-positive interval disables the job.
func (c *TokenCleanup) Run(ctx context.Context) {
	if c.interval <= 0 {
		c.logger.Info(ctx, "token cleanup disabled")
		return
	}

	c.logger.Info(ctx, "starting token cleanup", "interval", c.interval.String())
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.RunOnce(ctx)
		case <-ctx.Done():
			c.logger.Info(ctx, "token cleanup stopped")
			return
		}
	}
}

// RunOnce performs a single purge and returns the number of removed tokens.
func (c *TokenCleanup) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	n, err := c.purger.PurgeExpired(ctx)
	if err != nil {
		c.logger.Error(ctx, "token cleanup failed", "error", err)
		return 0
	}
	if n > 0 {
		c.logger.Info(ctx, "expired refresh tokens removed", "deleted_count", n)
	}
	return n
}
