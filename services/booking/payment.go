package booking

import (
	"context"

	"hireflow/models"

	"go.uber.org/zap"
)

// RecordPayment applies a gateway settlement confirmation. A completed
// booking still waiting on its direct portion is released here.
func (m *Machine) RecordPayment(ctx context.Context, ev models.PaymentEvent) (*models.Booking, error) {
	return m.withBooking(ctx, ev.BookingID, func(b *models.Booking) error {
		if b.Status == models.BookingCancelled {
			m.logger.Warn("payment confirmed for cancelled booking",
				zap.String("bookingID", b.ID), zap.String("gatewayRef", ev.GatewayRef))
			return nil
		}
		if ev.Amount != 0 && ev.Amount != b.Payment.AdvanceAmount && ev.Amount != b.Payment.TotalAmount {
			m.logger.Warn("payment amount does not match booking",
				zap.String("bookingID", b.ID),
				zap.Int64("amount", ev.Amount),
				zap.Int64("advance", b.Payment.AdvanceAmount))
		}

		if _, err := m.ledger.MarkDirectPaymentConfirmed(ctx, b.ID, ev.GatewayRef); err != nil {
			return err
		}
		if b.Payment.GatewayRef == "" {
			b.Payment.GatewayRef = ev.GatewayRef
		}
		if b.Payment.PaymentStatus == models.PaymentStatusPending {
			b.Payment.PaymentStatus = models.PaymentStatusAdvancePaid
		}

		if b.Status == models.BookingCompleted {
			acc, err := m.ledger.Get(ctx, b.ID)
			if err != nil {
				return err
			}
			if acc.EscrowStatus == models.EscrowPartialRelease {
				acc, err = m.ledger.AttemptRelease(ctx, b.ID, evidence(b))
				if err != nil {
					return err
				}
			}
			if acc.EscrowStatus == models.EscrowReleased {
				b.Payment.PaymentStatus = models.PaymentStatusFullyPaid
			}
		}
		if err := m.save(ctx, b); err != nil {
			return err
		}
		m.logger.Info("payment recorded",
			zap.String("bookingID", b.ID),
			zap.String("gatewayRef", ev.GatewayRef),
			zap.String("paymentStatus", string(b.Payment.PaymentStatus)))
		return nil
	})
}

// AbortPayment handles a failed payment attempt. A booking that has not been
// confirmed yet is cancelled and its escrow voided; later failures are only
// logged since the employer may retry.
func (m *Machine) AbortPayment(ctx context.Context, ev models.PaymentEvent) (*models.Booking, error) {
	return m.withBooking(ctx, ev.BookingID, func(b *models.Booking) error {
		if b.Status != models.BookingPending {
			m.logger.Warn("payment failed after confirmation",
				zap.String("bookingID", b.ID), zap.String("reason", ev.Reason))
			return nil
		}
		return m.cancel(ctx, b, "payment failed: "+ev.Reason)
	})
}
