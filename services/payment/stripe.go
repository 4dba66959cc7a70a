package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hireflow/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// BookingMetadataKey is the PaymentIntent metadata key holding the booking id.
const BookingMetadataKey = "booking_id"

const (
	eventSucceeded = "payment_intent.succeeded"
	eventFailed    = "payment_intent.payment_failed"
)

// StripeGateway verifies Stripe webhooks and issues refunds.
type StripeGateway struct {
	webhookSecret string
	logger        *zap.Logger
}

func NewStripeGateway(apiKey, webhookSecret string, logger *zap.Logger) *StripeGateway {
	if apiKey != "" {
		stripe.Key = apiKey
	}
	return &StripeGateway{webhookSecret: webhookSecret, logger: logger}
}

// ParseEvent verifies the signature and maps a PaymentIntent outcome to a
// PaymentEvent. Other event types return nil with no error.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*models.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, fmt.Errorf("invalid webhook: %w", err)
	}

	switch string(event.Type) {
	case eventSucceeded, eventFailed:
	default:
		g.logger.Debug("ignoring stripe event", zap.String("type", string(event.Type)))
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("invalid payment intent: %w", err)
	}
	ev := &models.PaymentEvent{
		BookingID:  pi.Metadata[BookingMetadataKey],
		Amount:     pi.AmountReceived,
		GatewayRef: pi.ID,
		Succeeded:  string(event.Type) == eventSucceeded,
	}
	if !ev.Succeeded {
		ev.Reason = "payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			ev.Reason = pi.LastPaymentError.Msg
		}
	}
	return ev, nil
}

// Refund returns a captured PaymentIntent to the payer. The request is keyed
// on the booking, and a charge Stripe reports as already refunded counts as
// refunded.
func (g *StripeGateway) Refund(ctx context.Context, bookingID, gatewayRef, reason string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(gatewayRef),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(refundKey(bookingID))
	params.AddMetadata("reason", reason)
	params.AddMetadata(BookingMetadataKey, bookingID)

	r, err := refund.New(params)
	if alreadyRefunded(err) {
		g.logger.Info("refund already issued", zap.String("bookingID", bookingID), zap.String("paymentIntent", gatewayRef))
		return nil
	}
	if err != nil {
		return fmt.Errorf("stripe refund failed: %w", err)
	}
	g.logger.Info("refund issued",
		zap.String("bookingID", bookingID),
		zap.String("paymentIntent", gatewayRef),
		zap.String("refundID", r.ID))
	return nil
}

func refundKey(bookingID string) string { return "void-" + bookingID }

func alreadyRefunded(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.Code == stripe.ErrorCodeChargeAlreadyRefunded
}
