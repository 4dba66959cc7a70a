package booking

import (
	"context"
	"fmt"

	"hireflow/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateFromOffer opens a pending booking for an accepted instant offer.
func (m *Machine) CreateFromOffer(ctx context.Context, offer models.BookingOffer) (*models.Booking, error) {
	return m.Create(ctx, models.BookingRequest{
		OfferID:       offer.ID,
		ServiceRef:    offer.ServiceRef,
		FreelancerID:  offer.FreelancerID,
		EmployerID:    offer.EmployerID,
		Schedule:      offer.Schedule,
		TotalAmount:   offer.Budget,
		PaymentMethod: offer.PaymentMethod,
	})
}

// Create opens the escrow account and then stores the booking in pending.
// If the booking cannot be stored the fresh escrow account is voided.
func (m *Machine) Create(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if req.FreelancerID == "" || req.EmployerID == "" || req.ServiceRef == "" {
		return nil, ErrInvalidRequest
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentPlatform
	}
	policy, err := m.policy.For(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	acc, err := m.ledger.Open(ctx, id, req.TotalAmount, policy)
	if err != nil {
		return nil, err
	}

	fee := acc.CommissionAmount + acc.GSTOnCommission
	now := m.now()
	b := &models.Booking{
		ID:           id,
		OfferID:      req.OfferID,
		ServiceRef:   req.ServiceRef,
		FreelancerID: req.FreelancerID,
		EmployerID:   req.EmployerID,
		Schedule:     req.Schedule,
		Status:       models.BookingPending,
		Payment: models.PaymentDetails{
			TotalAmount:       acc.TotalBookingAmount,
			AdvanceAmount:     acc.PlatformAmount,
			RemainingAmount:   acc.DirectAmount,
			PaymentMethod:     req.PaymentMethod,
			PaymentStatus:     models.PaymentStatusPending,
			PlatformFee:       fee,
			FreelancerEarning: acc.TotalBookingAmount - fee,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.repo.Create(ctx, b); err != nil {
		if _, vErr := m.ledger.Void(ctx, id, "booking could not be stored"); vErr != nil {
			m.logger.Error("failed to void orphaned escrow", zap.String("bookingID", id), zap.Error(vErr))
		}
		return nil, fmt.Errorf("failed to store booking: %w", err)
	}

	m.logger.Info("booking created",
		zap.String("bookingID", id),
		zap.String("offerID", req.OfferID),
		zap.String("freelancerID", req.FreelancerID),
		zap.Int64("total", b.Payment.TotalAmount))

	m.notify(ctx, models.NotificationPayload{
		UserID: b.EmployerID,
		Target: models.TargetEmployer,
		Type:   "booking_update",
		Title:  "Booking accepted",
		Body:   fmt.Sprintf("Your %s booking is waiting for confirmation.", b.ServiceRef),
		Data:   map[string]string{"bookingId": id, "status": string(b.Status)},
	})
	return b, nil
}
