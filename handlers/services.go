package handlers

import (
	"context"

	"hireflow/models"
	"hireflow/services/booking"
	"hireflow/services/dispatch"
	"hireflow/services/payout"
)

// OfferService is the dispatch surface used over HTTP.
type OfferService interface {
	Announce(ctx context.Context, offer models.BookingOffer) (*models.BookingOffer, error)
	Decide(ctx context.Context, p models.Principal, offerID string, outcome models.OfferOutcome) (*dispatch.Resolution, error)
	Pending(freelancerID string) (*models.BookingOffer, bool)
	History(ctx context.Context, freelancerID string, limit int64) ([]models.OfferRecord, error)
}

// BookingService is the booking state machine surface used over HTTP.
type BookingService interface {
	Get(ctx context.Context, p models.Principal, id string) (*models.Booking, error)
	List(ctx context.Context, p models.Principal) ([]models.Booking, error)
	Confirm(ctx context.Context, p models.Principal, id string) (*models.Booking, error)
	Start(ctx context.Context, p models.Principal, id, code string) (*models.Booking, error)
	Complete(ctx context.Context, p models.Principal, id, code string) (*models.Booking, error)
	Cancel(ctx context.Context, p models.Principal, id, reason string) (*models.Booking, error)
	SubmitRating(ctx context.Context, p models.Principal, id string, rating int) (*models.Booking, error)
	ApproveRelease(ctx context.Context, p models.Principal, id string) (*models.Booking, error)
	ReissueOTP(ctx context.Context, p models.Principal, id string) (string, error)
	ResolveDispute(ctx context.Context, p models.Principal, id string, outcome booking.DisputeOutcome, notes string) (*models.Booking, error)
}

// EscrowService is the ledger surface used over HTTP.
type EscrowService interface {
	Get(ctx context.Context, bookingID string) (*models.EscrowAccount, error)
	Payout(ctx context.Context, bookingID string) (payout.Calculation, error)
	RaiseDispute(ctx context.Context, bookingID, notes string) (*models.EscrowAccount, error)
	ForceRelease(ctx context.Context, admin models.Principal, bookingID, notes string) (*models.EscrowAccount, error)
}

// WebhookGateway verifies and decodes a gateway callback. A nil event with a
// nil error means the callback is not one we act on.
type WebhookGateway interface {
	ParseEvent(payload []byte, signature string) (*models.PaymentEvent, error)
}

// PaymentEventHandler applies a decoded payment event.
type PaymentEventHandler interface {
	Handle(ctx context.Context, ev models.PaymentEvent) error
}
