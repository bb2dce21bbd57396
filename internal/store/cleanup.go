package store

import (
	"context"
	"log/slog"
	"time"
)

// StartCleanup runs the expired-artifact sweeper until ctx is cancelled.
// Unclaimed results do not accumulate forever; anything past its TTL is
// dropped on the next sweep.
func StartCleanup(ctx context.Context, repo Repository, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := repo.CleanupExpired(ctx)
				if err != nil {
					slog.Warn("Artifact cleanup failed", "error", err)
					continue
				}
				if removed > 0 {
					slog.Info("Removed expired artifacts", "count", removed)
				}
			}
		}
	}()
}
