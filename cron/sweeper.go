package cron

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StaleExpirer cancels bookings that never got paid.
type StaleExpirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration) (int, error)
}

// StartPendingSweeper runs ExpireStale every interval until ctx is done.
func StartPendingSweeper(ctx context.Context, expirer StaleExpirer, ttl, interval time.Duration, logger *zap.Logger) {
	if ttl <= 0 || interval <= 0 {
		logger.Info("[PendingSweeper] disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[PendingSweeper] shutdown signal received")
			return
		case <-ticker.C:
			sweep(ctx, expirer, ttl, logger)
		}
	}
}

func sweep(ctx context.Context, expirer StaleExpirer, ttl time.Duration, logger *zap.Logger) {
	n, err := expirer.ExpireStale(ctx, ttl)
	if err != nil {
		logger.Error("[PendingSweeper] sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("[PendingSweeper] expired unpaid bookings", zap.Int("count", n))
	}
}
