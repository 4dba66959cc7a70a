// Package booking drives a booking from pending to completed or cancelled.
// Every transition consults the OTP gate and the escrow ledger, and is
// persisted with an optimistic version check.
package booking

import (
	"context"
	"time"

	"hireflow/database/repository/bookingRepo"
	"hireflow/models"
	"hireflow/services/escrow"
	"hireflow/services/notification"
	"hireflow/utils"

	"go.uber.org/zap"
)

// Ledger is the escrow surface the machine depends on.
type Ledger interface {
	Open(ctx context.Context, bookingID string, total int64, policy escrow.Policy) (*models.EscrowAccount, error)
	Get(ctx context.Context, bookingID string) (*models.EscrowAccount, error)
	MarkDirectPaymentConfirmed(ctx context.Context, bookingID, gatewayRef string) (*models.EscrowAccount, error)
	UnmetConditions(ctx context.Context, bookingID string, ev models.ReleaseEvidence) ([]string, error)
	AttemptRelease(ctx context.Context, bookingID string, ev models.ReleaseEvidence) (*models.EscrowAccount, error)
	RaiseDispute(ctx context.Context, bookingID, notes string) (*models.EscrowAccount, error)
	Void(ctx context.Context, bookingID, reason string) (*models.EscrowAccount, error)
	ForceRelease(ctx context.Context, admin models.Principal, bookingID, notes string) (*models.EscrowAccount, error)
	ForceVoid(ctx context.Context, admin models.Principal, bookingID, notes string) (*models.EscrowAccount, error)
}

// OTPGate issues and checks start/end codes.
type OTPGate interface {
	Issue(ctx context.Context, bookingID string, phase models.OTPPhase) (string, bool, error)
	Verify(ctx context.Context, bookingID string, phase models.OTPPhase, code string) error
	Consumed(ctx context.Context, bookingID string, phase models.OTPPhase) (bool, error)
}

// Machine is the booking state machine.
type Machine struct {
	repo     bookingRepo.BookingRepository
	ledger   Ledger
	otp      OTPGate
	notifier notification.Notifier
	policy   escrow.PolicyConfig
	logger   *zap.Logger
	locks    utils.KeyedMutex
	now      func() time.Time
}

func NewMachine(
	repo bookingRepo.BookingRepository,
	ledger Ledger,
	otp OTPGate,
	notifier notification.Notifier,
	policy escrow.PolicyConfig,
	logger *zap.Logger,
) *Machine {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Machine{
		repo:     repo,
		ledger:   ledger,
		otp:      otp,
		notifier: notifier,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:    {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed:  {models.BookingInProgress, models.BookingCancelled},
	models.BookingInProgress: {models.BookingCompleted, models.BookingCancelled},
}

func canTransition(from, to models.BookingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func isParty(p models.Principal, b *models.Booking) bool {
	return p.ID != "" && (p.ID == b.EmployerID || p.ID == b.FreelancerID)
}

// withBooking loads a booking under its lock and hands fn a private copy.
func (m *Machine) withBooking(ctx context.Context, id string, fn func(b *models.Booking) error) (*models.Booking, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	b, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *Machine) save(ctx context.Context, b *models.Booking) error {
	b.UpdatedAt = m.now()
	return m.repo.Update(ctx, b)
}

// notify hands a push to the transport. Delivery problems never fail a
// transition that has already been decided.
func (m *Machine) notify(ctx context.Context, p models.NotificationPayload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyUser(ctx, p); err != nil {
		m.logger.Warn("failed to queue notification",
			zap.String("userID", p.UserID),
			zap.String("type", p.Type),
			zap.Error(err))
	}
}

// Get returns a booking visible to the caller.
func (m *Machine) Get(ctx context.Context, p models.Principal, id string) (*models.Booking, error) {
	b, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !isParty(p, b) {
		return nil, ErrForbidden
	}
	return b, nil
}

// List returns the caller's bookings, newest first.
func (m *Machine) List(ctx context.Context, p models.Principal) ([]models.Booking, error) {
	return m.repo.ListByParticipant(ctx, p.ID)
}
