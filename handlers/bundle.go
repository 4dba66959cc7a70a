package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// HandlerBundle groups every endpoint handler for route registration.
type HandlerBundle struct {
	// AuthCache backs token revocation; nil disables the check.
	AuthCache *redis.Client

	// Offer endpoints.
	AnnounceOfferHandler gin.HandlerFunc
	DecideOfferHandler   gin.HandlerFunc
	PendingOfferHandler  gin.HandlerFunc
	OfferHistoryHandler  gin.HandlerFunc

	// Booking endpoints.
	ListBookingsHandler    gin.HandlerFunc
	GetBookingHandler      gin.HandlerFunc
	ConfirmBookingHandler  gin.HandlerFunc
	StartBookingHandler    gin.HandlerFunc
	CompleteBookingHandler gin.HandlerFunc
	CancelBookingHandler   gin.HandlerFunc
	SubmitRatingHandler    gin.HandlerFunc
	ReissueOTPHandler      gin.HandlerFunc

	// Escrow endpoints.
	GetEscrowHandler    gin.HandlerFunc
	GetPayoutHandler    gin.HandlerFunc
	RaiseDisputeHandler gin.HandlerFunc

	// Admin endpoints.
	ApproveReleaseHandler gin.HandlerFunc
	ForceReleaseHandler   gin.HandlerFunc
	ResolveDisputeHandler gin.HandlerFunc

	// Payments.
	StripeWebhookHandler gin.HandlerFunc

	// Devices and auth.
	UpdateFCMTokenHandler gin.HandlerFunc
	RevokeTokenHandler    gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle wires every handler struct into the bundle.
func NewHandlerBundle(
	offers *OfferHandler,
	bookings *BookingHandler,
	escrow *EscrowHandler,
	payments *PaymentHandler,
	devices *DeviceHandler,
	auth *AuthHandler,
) *HandlerBundle {
	return &HandlerBundle{
		AuthCache: auth.Cache,

		AnnounceOfferHandler: offers.AnnounceOfferHandler,
		DecideOfferHandler:   offers.DecideOfferHandler,
		PendingOfferHandler:  offers.PendingOfferHandler,
		OfferHistoryHandler:  offers.OfferHistoryHandler,

		ListBookingsHandler:    bookings.ListBookingsHandler,
		GetBookingHandler:      bookings.GetBookingHandler,
		ConfirmBookingHandler:  bookings.ConfirmBookingHandler,
		StartBookingHandler:    bookings.StartBookingHandler,
		CompleteBookingHandler: bookings.CompleteBookingHandler,
		CancelBookingHandler:   bookings.CancelBookingHandler,
		SubmitRatingHandler:    bookings.SubmitRatingHandler,
		ReissueOTPHandler:      bookings.ReissueOTPHandler,

		GetEscrowHandler:    escrow.GetEscrowHandler,
		GetPayoutHandler:    escrow.GetPayoutHandler,
		RaiseDisputeHandler: escrow.RaiseDisputeHandler,

		ApproveReleaseHandler: escrow.ApproveReleaseHandler,
		ForceReleaseHandler:   escrow.ForceReleaseHandler,
		ResolveDisputeHandler: escrow.ResolveDisputeHandler,

		StripeWebhookHandler: payments.StripeWebhookHandler,

		UpdateFCMTokenHandler: devices.UpdateFCMTokenHandler,
		RevokeTokenHandler:    auth.RevokeTokenHandler,

		HealthHandler: HealthHandler,
	}
}
