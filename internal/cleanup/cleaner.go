package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper disposes of abandoned assessment sessions and stale results
type SessionSweeper interface {
	Sweep(ctx context.Context) (discarded, evicted int)
}

// ExpiringStore purges credentials that can no longer be used
type ExpiringStore interface {
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredPhoneCodes(ctx context.Context, now time.Time) (int64, error)
}

// Cleaner handles periodic cleanup of abandoned sessions and expired credentials
type Cleaner struct {
	sessions SessionSweeper
	store    ExpiringStore
	interval time.Duration
	now      func() time.Time
}

// NewCleaner creates a new cleanup worker. store may be nil.
func NewCleaner(sessions SessionSweeper, store ExpiringStore, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Cleaner{
		sessions: sessions,
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup runs one sweep over sessions, token revocations and phone codes
func (c *Cleaner) cleanup(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	discarded, evicted := c.sessions.Sweep(ctx)
	if discarded > 0 || evicted > 0 {
		slog.Info("swept assessment sessions",
			"discarded", discarded,
			"results_evicted", evicted,
		)
	}

	if c.store == nil {
		return
	}
	now := c.now()

	revoked, err := c.store.DeleteExpiredRevocations(ctx, now)
	if err != nil {
		slog.Error("failed to delete expired revocations", "error", err)
	} else if revoked > 0 {
		slog.Info("expired revocations deleted", "count", revoked)
	}

	codes, err := c.store.DeleteExpiredPhoneCodes(ctx, now)
	if err != nil {
		slog.Error("failed to delete expired phone codes", "error", err)
	} else if codes > 0 {
		slog.Info("expired phone codes deleted", "count", codes)
	}
}
