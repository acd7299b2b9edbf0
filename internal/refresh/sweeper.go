package refresh

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper deletes expired refresh-token rows on a fixed interval. It is the
// only background task in the service; the delete is a single idempotent
// statement and holds no locks foreground traffic waits on.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	log      *zap.Logger
}

// NewSweeper creates a [Sweeper] over the given manager.
func NewSweeper(manager *Manager, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		manager:  manager,
		interval: interval,
		log:      log,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.manager.DeleteExpired(ctx, time.Now())
			if err != nil {
				s.log.Warn("expired token sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("expired refresh tokens deleted", zap.Int64("count", n))
			}
		}
	}
}
