package booking

import (
	"context"
	"errors"
	"fmt"

	"hireflow/models"
	"hireflow/services/escrow"
	"hireflow/services/otp"

	"go.uber.org/zap"
)

// Confirm moves a pending booking to confirmed and sends the employer the
// start code.
func (m *Machine) Confirm(ctx context.Context, p models.Principal, id string) (*models.Booking, error) {
	return m.withBooking(ctx, id, func(b *models.Booking) error {
		if !isParty(p, b) {
			return ErrForbidden
		}
		if !canTransition(b.Status, models.BookingConfirmed) {
			return guardFailed(b, "confirm", nil)
		}

		code, _, err := m.otp.Issue(ctx, b.ID, models.OTPStart)
		if err != nil {
			return guardErr(b, "confirm", err)
		}
		now := m.now()
		b.Status = models.BookingConfirmed
		b.OTP.OTPGenerated = true
		b.OTP.StartIssuedAt = &now
		if err := m.save(ctx, b); err != nil {
			return err
		}

		m.logger.Info("booking confirmed", zap.String("bookingID", b.ID), zap.String("by", p.ID))
		m.notify(ctx, codePayload(b, models.OTPStart, code))
		return nil
	})
}

// Start checks the start code presented by the freelancer. A phase locked
// by repeated wrong codes escalates the escrow to dispute. A start code that
// was accepted by an attempt whose write failed counts as verified.
func (m *Machine) Start(ctx context.Context, p models.Principal, id, code string) (*models.Booking, error) {
	return m.withBooking(ctx, id, func(b *models.Booking) error {
		if p.ID != b.FreelancerID {
			return ErrForbidden
		}
		if !canTransition(b.Status, models.BookingInProgress) {
			return guardFailed(b, "start", nil)
		}

		if err := m.checkCode(ctx, b, models.OTPStart, "start", code); err != nil {
			return err
		}

		now := m.now()
		b.Status = models.BookingInProgress
		b.OTP.StartVerifiedAt = &now

		endCode, _, err := m.otp.Issue(ctx, b.ID, models.OTPEnd)
		if err != nil {
			// The start code is spent; the end code can be reissued later.
			m.logger.Error("failed to issue end code", zap.String("bookingID", b.ID), zap.Error(err))
		} else {
			b.OTP.EndIssuedAt = &now
		}
		if err := m.save(ctx, b); err != nil {
			return err
		}

		m.logger.Info("booking started", zap.String("bookingID", b.ID))
		if endCode != "" {
			m.notify(ctx, codePayload(b, models.OTPEnd, endCode))
		}
		return nil
	})
}

// Complete finishes an in-progress booking. The release gate is checked
// before the end code is consumed, so a booking missing other evidence
// keeps its code.
func (m *Machine) Complete(ctx context.Context, p models.Principal, id, code string) (*models.Booking, error) {
	return m.withBooking(ctx, id, func(b *models.Booking) error {
		if p.ID != b.FreelancerID {
			return ErrForbidden
		}
		if !canTransition(b.Status, models.BookingCompleted) {
			return guardFailed(b, "complete", nil)
		}

		acc, err := m.ledger.Get(ctx, b.ID)
		if err != nil {
			return err
		}
		ev := evidence(b)
		ev.OTPSatisfied = true
		// An admin may already have force-released; then only the code is checked.
		released := acc.EscrowStatus == models.EscrowReleased || acc.EscrowStatus == models.EscrowPartialRelease
		if !released {
			unmet, err := m.ledger.UnmetConditions(ctx, b.ID, ev)
			if err != nil {
				return guardErr(b, "complete", err)
			}
			if len(unmet) > 0 {
				return guardFailed(b, "complete", &escrow.ConditionsNotMetError{BookingID: b.ID, Unmet: unmet})
			}
		}

		if b.OTP.EndVerifiedAt == nil {
			if err := m.checkCode(ctx, b, models.OTPEnd, "complete", code); err != nil {
				return err
			}
			now := m.now()
			b.OTP.EndVerifiedAt = &now
		}

		if !released {
			acc, err = m.ledger.AttemptRelease(ctx, b.ID, ev)
			if err != nil {
				// Keep the spent code's evidence so a retry does not need it.
				if saveErr := m.save(ctx, b); saveErr != nil {
					m.logger.Error("failed to record end verification", zap.String("bookingID", b.ID), zap.Error(saveErr))
				}
				return guardErr(b, "complete", err)
			}
		}

		now := m.now()
		b.Status = models.BookingCompleted
		b.CompletedAt = &now
		if acc.EscrowStatus == models.EscrowReleased {
			b.Payment.PaymentStatus = models.PaymentStatusFullyPaid
		}
		if err := m.save(ctx, b); err != nil {
			return err
		}

		m.logger.Info("booking completed",
			zap.String("bookingID", b.ID),
			zap.String("escrowStatus", string(acc.EscrowStatus)))
		m.notify(ctx, statusPayload(b, b.EmployerID, models.TargetEmployer, "Service completed"))
		m.notify(ctx, statusPayload(b, b.FreelancerID, models.TargetFreelancer, "Payout released"))
		return nil
	})
}

// Cancel ends a booking that has not completed. The escrow must still be
// holding so the full amount can go back to the payer.
func (m *Machine) Cancel(ctx context.Context, p models.Principal, id, reason string) (*models.Booking, error) {
	return m.withBooking(ctx, id, func(b *models.Booking) error {
		if !p.IsAdmin() && !isParty(p, b) {
			return ErrForbidden
		}
		return m.cancel(ctx, b, reason)
	})
}

func (m *Machine) cancel(ctx context.Context, b *models.Booking, reason string) error {
	if !canTransition(b.Status, models.BookingCancelled) {
		return guardFailed(b, "cancel", nil)
	}
	if _, err := m.ledger.Void(ctx, b.ID, reason); err != nil {
		return guardErr(b, "cancel", err)
	}

	now := m.now()
	b.Status = models.BookingCancelled
	b.CancelledAt = &now
	b.CancelReason = reason
	if err := m.save(ctx, b); err != nil {
		return err
	}

	m.logger.Info("booking cancelled", zap.String("bookingID", b.ID), zap.String("reason", reason))
	m.notify(ctx, statusPayload(b, b.EmployerID, models.TargetEmployer, "Booking cancelled"))
	m.notify(ctx, statusPayload(b, b.FreelancerID, models.TargetFreelancer, "Booking cancelled"))
	return nil
}

// checkCode verifies the presented code for phase. The code is consumed
// before the booking is written, so a phase whose code is already spent
// while the booking has not moved on is treated as verified.
func (m *Machine) checkCode(ctx context.Context, b *models.Booking, phase models.OTPPhase, event, code string) error {
	spent, err := m.otp.Consumed(ctx, b.ID, phase)
	if err != nil {
		return guardErr(b, event, err)
	}
	if spent {
		m.logger.Warn("code already consumed, resuming transition",
			zap.String("bookingID", b.ID),
			zap.String("phase", string(phase)))
		return nil
	}
	if err := m.otp.Verify(ctx, b.ID, phase, code); err != nil {
		m.escalateLock(ctx, b, phase, err)
		return guardErr(b, event, err)
	}
	return nil
}

// escalateLock raises a dispute when a phase has just been locked.
func (m *Machine) escalateLock(ctx context.Context, b *models.Booking, phase models.OTPPhase, err error) {
	if !errors.Is(err, otp.ErrOTPLocked) {
		return
	}
	notes := fmt.Sprintf("%s code locked after repeated mismatches", phase)
	if _, dErr := m.ledger.RaiseDispute(ctx, b.ID, notes); dErr != nil {
		m.logger.Error("failed to raise dispute", zap.String("bookingID", b.ID), zap.Error(dErr))
		return
	}
	m.logger.Warn("booking escalated to dispute", zap.String("bookingID", b.ID), zap.String("phase", string(phase)))
}

func evidence(b *models.Booking) models.ReleaseEvidence {
	return models.ReleaseEvidence{
		OTPSatisfied:    b.OTP.EndVerifiedAt != nil,
		RatingSubmitted: b.Evidence.RatingSubmitted,
		AdminApproved:   b.Evidence.AdminApproved,
	}
}

func codePayload(b *models.Booking, phase models.OTPPhase, code string) models.NotificationPayload {
	title := "Your start code"
	if phase == models.OTPEnd {
		title = "Your completion code"
	}
	return models.NotificationPayload{
		UserID: b.EmployerID,
		Target: models.TargetEmployer,
		Type:   "otp",
		Title:  title,
		Body:   fmt.Sprintf("Share code %s with your freelancer when they %s.", code, verb(phase)),
		Data:   map[string]string{"bookingId": b.ID, "phase": string(phase)},
	}
}

func verb(phase models.OTPPhase) string {
	if phase == models.OTPStart {
		return "arrive"
	}
	return "finish"
}

func statusPayload(b *models.Booking, userID string, target models.NotificationTarget, title string) models.NotificationPayload {
	return models.NotificationPayload{
		UserID: userID,
		Target: target,
		Type:   "booking_update",
		Title:  title,
		Body:   fmt.Sprintf("Booking for %s is now %s.", b.ServiceRef, b.Status),
		Data:   map[string]string{"bookingId": b.ID, "status": string(b.Status)},
	}
}
