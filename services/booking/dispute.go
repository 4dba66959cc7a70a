package booking

import (
	"context"

	"hireflow/models"
	"hireflow/services/escrow"

	"go.uber.org/zap"
)

// DisputeOutcome is how an admin settles a disputed booking.
type DisputeOutcome string

const (
	ResolveRelease DisputeOutcome = "release"
	ResolveRefund  DisputeOutcome = "refund"
)

// ResolveDispute ends a disputed booking. A release pays the freelancer and
// completes the booking; a refund returns the funds and cancels it. An
// escrow already settled the same way is accepted, so a booking left behind
// by an earlier force release can still be closed.
func (m *Machine) ResolveDispute(ctx context.Context, p models.Principal, id string, outcome DisputeOutcome, notes string) (*models.Booking, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	if outcome != ResolveRelease && outcome != ResolveRefund {
		return nil, ErrInvalidOutcome
	}
	if notes == "" {
		return nil, escrow.ErrNotesRequired
	}
	return m.withBooking(ctx, id, func(b *models.Booking) error {
		if b.Status.IsTerminal() {
			return guardFailed(b, "resolve", nil)
		}
		acc, err := m.ledger.Get(ctx, b.ID)
		if err != nil {
			return err
		}

		now := m.now()
		switch outcome {
		case ResolveRelease:
			if acc.EscrowStatus != models.EscrowReleased {
				if acc.EscrowStatus != models.EscrowDisputed {
					return guardErr(b, "resolve", &escrow.TransitionError{BookingID: b.ID, From: acc.EscrowStatus, Action: "resolve"})
				}
				if _, err := m.ledger.ForceRelease(ctx, p, b.ID, notes); err != nil {
					return guardErr(b, "resolve", err)
				}
			}
			b.Status = models.BookingCompleted
			b.CompletedAt = &now
			b.Payment.PaymentStatus = models.PaymentStatusFullyPaid
		case ResolveRefund:
			if _, err := m.ledger.ForceVoid(ctx, p, b.ID, notes); err != nil {
				return guardErr(b, "resolve", err)
			}
			b.Status = models.BookingCancelled
			b.CancelledAt = &now
			b.CancelReason = notes
		}
		if err := m.save(ctx, b); err != nil {
			return err
		}

		m.logger.Warn("dispute resolved",
			zap.String("bookingID", b.ID),
			zap.String("adminID", p.ID),
			zap.String("outcome", string(outcome)))
		m.notify(ctx, statusPayload(b, b.EmployerID, models.TargetEmployer, "Dispute resolved"))
		m.notify(ctx, statusPayload(b, b.FreelancerID, models.TargetFreelancer, "Dispute resolved"))
		return nil
	})
}
