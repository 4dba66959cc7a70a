// Package payment consumes gateway settlement events. The gateway is opaque
// to the core: each payment attempt ends in exactly one confirmed or failed
// event.
package payment

import (
	"context"
	"errors"

	"hireflow/models"
	"hireflow/utils"

	"go.uber.org/zap"
)

// Recorder applies settlement outcomes to bookings.
type Recorder interface {
	RecordPayment(ctx context.Context, ev models.PaymentEvent) (*models.Booking, error)
	AbortPayment(ctx context.Context, ev models.PaymentEvent) (*models.Booking, error)
}

var ErrMissingBooking = errors.New("payment event carries no booking id")

type Processor struct {
	bookings Recorder
	logger   *zap.Logger
}

func NewProcessor(bookings Recorder, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Processor{bookings: bookings, logger: logger}
}

// PaymentConfirmed marks the booking's direct payment as settled.
func (p *Processor) PaymentConfirmed(ctx context.Context, bookingID string, amount int64, gatewayRef string) error {
	return p.Handle(ctx, models.PaymentEvent{
		BookingID:  bookingID,
		Amount:     amount,
		GatewayRef: gatewayRef,
		Succeeded:  true,
	})
}

// PaymentFailed aborts a booking whose payment did not go through.
func (p *Processor) PaymentFailed(ctx context.Context, bookingID, reason string) error {
	return p.Handle(ctx, models.PaymentEvent{BookingID: bookingID, Reason: reason})
}

func (p *Processor) Handle(ctx context.Context, ev models.PaymentEvent) error {
	if ev.BookingID == "" {
		return ErrMissingBooking
	}
	var err error
	if ev.Succeeded {
		_, err = p.bookings.RecordPayment(ctx, ev)
	} else {
		_, err = p.bookings.AbortPayment(ctx, ev)
	}
	if err != nil {
		p.logger.Error("failed to apply payment event",
			zap.String("bookingID", ev.BookingID),
			zap.Bool("succeeded", ev.Succeeded),
			zap.Error(err))
		return err
	}
	p.logger.Info("payment event applied",
		zap.String("bookingID", ev.BookingID),
		zap.Bool("succeeded", ev.Succeeded),
		zap.String("gatewayRef", ev.GatewayRef))
	return nil
}
