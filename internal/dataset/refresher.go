package dataset

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Refresher is anything with a Refresh, such as a *Snapshot.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

// RunPeriodic refreshes every target once per interval until ctx is done.
// Failures are logged by the snapshot itself; the loop keeps going.
func RunPeriodic(ctx context.Context, interval time.Duration, logger *slog.Logger, targets ...Refresher) {
	if interval <= 0 || len(targets) == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("periodic dataset refresh started", "interval", interval.String(), "collections", len(targets))
	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic dataset refresh stopped")
			return
		case <-ticker.C:
			for _, t := range targets {
				if err := t.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
					logger.Debug("periodic refresh failed", "collection", t.Name(), "error", err)
				}
			}
		}
	}
}
