package booking

import (
	"context"

	"hireflow/models"

	"go.uber.org/zap"
)

// SubmitRating records the employer's rating as release evidence.
func (m *Machine) SubmitRating(ctx context.Context, p models.Principal, id string, rating int) (*models.Booking, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	return m.withBooking(ctx, id, func(b *models.Booking) error {
		if p.ID != b.EmployerID {
			return ErrForbidden
		}
		if b.Status == models.BookingPending || b.Status == models.BookingCancelled {
			return guardFailed(b, "rate", nil)
		}
		b.Evidence.Rating = rating
		b.Evidence.RatingSubmitted = true
		return m.save(ctx, b)
	})
}

// ApproveRelease records an admin's approval as release evidence.
func (m *Machine) ApproveRelease(ctx context.Context, p models.Principal, id string) (*models.Booking, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	return m.withBooking(ctx, id, func(b *models.Booking) error {
		if b.Status == models.BookingCancelled {
			return guardFailed(b, "approve", nil)
		}
		if b.Evidence.AdminApproved {
			return nil
		}
		now := m.now()
		b.Evidence.AdminApproved = true
		b.Evidence.ApprovedBy = p.ID
		b.Evidence.ApprovedAt = &now
		if err := m.save(ctx, b); err != nil {
			return err
		}
		m.logger.Info("release approved", zap.String("bookingID", b.ID), zap.String("adminID", p.ID))
		return nil
	})
}

// ReissueOTP replaces the code for the booking's current phase and returns
// it to the employer.
func (m *Machine) ReissueOTP(ctx context.Context, p models.Principal, id string) (string, error) {
	var code string
	_, err := m.withBooking(ctx, id, func(b *models.Booking) error {
		if p.ID != b.EmployerID {
			return ErrForbidden
		}
		var phase models.OTPPhase
		switch b.Status {
		case models.BookingConfirmed:
			phase = models.OTPStart
		case models.BookingInProgress:
			phase = models.OTPEnd
		default:
			return guardFailed(b, "reissue code for", nil)
		}

		c, _, err := m.otp.Issue(ctx, b.ID, phase)
		if err != nil {
			return guardErr(b, "reissue code for", err)
		}
		now := m.now()
		if phase == models.OTPStart {
			b.OTP.StartIssuedAt = &now
		} else {
			b.OTP.EndIssuedAt = &now
		}
		if err := m.save(ctx, b); err != nil {
			return err
		}
		code = c
		m.notify(ctx, codePayload(b, phase, c))
		return nil
	})
	return code, err
}
