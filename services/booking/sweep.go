package booking

import (
	"context"
	"errors"
	"time"

	"hireflow/models"

	"go.uber.org/zap"
)

const (
	staleBatch  = int64(100)
	staleReason = "payment not received in time"
)

var errSkip = errors.New("booking no longer stale")

// ExpireStale cancels pending bookings that saw no payment within ttl and
// voids their escrow. It returns how many were cancelled.
func (m *Machine) ExpireStale(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := m.now().Add(-ttl)
	stale, err := m.repo.ListStale(ctx, models.BookingPending, cutoff, staleBatch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, s := range stale {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		_, err := m.withBooking(ctx, s.ID, func(b *models.Booking) error {
			// Re-check under the lock; a payment may have landed since the scan.
			if b.Status != models.BookingPending || b.Payment.PaymentStatus != models.PaymentStatusPending {
				return errSkip
			}
			return m.cancel(ctx, b, staleReason)
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, errSkip):
		default:
			m.logger.Warn("failed to expire stale booking", zap.String("bookingID", s.ID), zap.Error(err))
		}
	}
	return expired, nil
}
