// Package escrow owns the platform-held money of each booking and the
// staged protocol that releases it.
package escrow

import (
	"context"
	"fmt"
	"time"

	"hireflow/database/repository/escrowRepo"
	"hireflow/models"
	"hireflow/services/payout"
	"hireflow/utils"

	"go.uber.org/zap"
)

// Refunder returns captured funds to the payer. Repeated calls for the same
// booking must refund at most once.
type Refunder interface {
	Refund(ctx context.Context, bookingID, gatewayRef, reason string) error
}

// Ledger is the only writer of escrow accounts. Mutations for one booking are
// serialized; unrelated bookings never wait on each other.
type Ledger struct {
	repo     escrowRepo.EscrowRepository
	refunder Refunder
	logger   *zap.Logger
	locks    utils.KeyedMutex
	now      func() time.Time
}

func NewLedger(repo escrowRepo.EscrowRepository, refunder Refunder, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Ledger{
		repo:     repo,
		refunder: refunder,
		logger:   logger,
		now:      time.Now,
	}
}

// Open creates the holding account for a booking.
func (l *Ledger) Open(ctx context.Context, bookingID string, total int64, policy Policy) (*models.EscrowAccount, error) {
	calc, err := payout.Compute(total, policy.CommissionRate, policy.GSTRate, policy.Method)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(bookingID)
	defer unlock()

	now := l.now()
	acc := &models.EscrowAccount{
		BookingID:          bookingID,
		TotalBookingAmount: calc.TotalAmount,
		PlatformAmount:     calc.PlatformAmount,
		DirectAmount:       calc.DirectAmount,
		CommissionAmount:   calc.CommissionAmount,
		GSTOnCommission:    calc.GSTAmount,
		NetPayoutAmount:    calc.NetPayout,
		CommissionRate:     calc.CommissionRate.String(),
		GSTRate:            calc.GSTRate.String(),
		SplitMethod:        policy.Method.Name(),
		PlatformRatio:      payout.Ratio(policy.Method),
		EscrowStatus:       models.EscrowHolding,
		ReleaseConditions:  policy.Conditions,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	mustBalance(acc)

	if err := l.repo.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("escrow: open %s: %w", bookingID, err)
	}
	l.logger.Info("escrow opened",
		zap.String("bookingID", bookingID),
		zap.Int64("platformAmount", acc.PlatformAmount),
		zap.Int64("directAmount", acc.DirectAmount),
		zap.Int64("netPayout", acc.NetPayoutAmount))
	return acc, nil
}

// Get returns the current account.
func (l *Ledger) Get(ctx context.Context, bookingID string) (*models.EscrowAccount, error) {
	acc, err := l.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("escrow: get %s: %w", bookingID, err)
	}
	return acc, nil
}

// Payout recomputes the calculation from the stored account. A recomputation
// that disagrees with the stored net payout is a bookkeeping defect.
func (l *Ledger) Payout(ctx context.Context, bookingID string) (payout.Calculation, error) {
	acc, err := l.Get(ctx, bookingID)
	if err != nil {
		return payout.Calculation{}, err
	}
	calc, err := payout.FromAccount(acc)
	if err != nil {
		return payout.Calculation{}, err
	}
	if calc.NetPayout != acc.NetPayoutAmount {
		panic(fmt.Sprintf("escrow %s: recomputed net payout %d differs from stored %d",
			bookingID, calc.NetPayout, acc.NetPayoutAmount))
	}
	return calc, nil
}

// MarkDirectPaymentConfirmed records that the direct portion was paid.
// Repeated calls are no-ops.
func (l *Ledger) MarkDirectPaymentConfirmed(ctx context.Context, bookingID, gatewayRef string) (*models.EscrowAccount, error) {
	return l.mutate(ctx, bookingID, func(acc *models.EscrowAccount) (bool, error) {
		if acc.EscrowStatus == models.EscrowVoided {
			return false, &TransitionError{BookingID: bookingID, From: acc.EscrowStatus, Action: "confirm direct payment"}
		}
		if acc.ReleaseConditions.DirectPaymentConfirmed {
			return false, nil
		}
		acc.ReleaseConditions.DirectPaymentConfirmed = true
		if acc.GatewayRef == "" {
			acc.GatewayRef = gatewayRef
		}
		return true, nil
	})
}

// UnmetConditions reports what a release attempt with this evidence would be
// missing, without changing anything.
func (l *Ledger) UnmetConditions(ctx context.Context, bookingID string, ev models.ReleaseEvidence) ([]string, error) {
	acc, err := l.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch acc.EscrowStatus {
	case models.EscrowHolding:
		return unmetEvidence(acc.ReleaseConditions, ev), nil
	case models.EscrowPartialRelease:
		if !acc.ReleaseConditions.DirectPaymentConfirmed {
			return []string{ConditionDirectPayment}, nil
		}
		return nil, nil
	}
	return nil, &TransitionError{BookingID: bookingID, From: acc.EscrowStatus, Action: "release"}
}

// AttemptRelease releases the held funds when every required condition is
// matched by evidence. While a direct portion is still unpaid the account
// only reaches partial_release.
func (l *Ledger) AttemptRelease(ctx context.Context, bookingID string, ev models.ReleaseEvidence) (*models.EscrowAccount, error) {
	return l.mutate(ctx, bookingID, func(acc *models.EscrowAccount) (bool, error) {
		switch acc.EscrowStatus {
		case models.EscrowHolding:
			if unmet := unmetEvidence(acc.ReleaseConditions, ev); len(unmet) > 0 {
				return false, &ConditionsNotMetError{BookingID: bookingID, Unmet: unmet}
			}
			now := l.now()
			acc.ReleasedAt = &now
			if acc.DirectAmount > 0 && !acc.ReleaseConditions.DirectPaymentConfirmed {
				acc.EscrowStatus = models.EscrowPartialRelease
			} else {
				acc.EscrowStatus = models.EscrowReleased
			}
		case models.EscrowPartialRelease:
			if !acc.ReleaseConditions.DirectPaymentConfirmed {
				return false, &ConditionsNotMetError{BookingID: bookingID, Unmet: []string{ConditionDirectPayment}}
			}
			now := l.now()
			acc.ReleasedAt = &now
			acc.EscrowStatus = models.EscrowReleased
		default:
			return false, &TransitionError{BookingID: bookingID, From: acc.EscrowStatus, Action: "release"}
		}
		l.logger.Info("escrow release",
			zap.String("bookingID", bookingID),
			zap.String("status", string(acc.EscrowStatus)))
		return true, nil
	})
}

// RaiseDispute freezes the account until an admin force-releases it.
func (l *Ledger) RaiseDispute(ctx context.Context, bookingID, notes string) (*models.EscrowAccount, error) {
	return l.mutate(ctx, bookingID, func(acc *models.EscrowAccount) (bool, error) {
		switch acc.EscrowStatus {
		case models.EscrowHolding, models.EscrowPartialRelease:
		case models.EscrowDisputed:
			return false, nil
		default:
			return false, &TransitionError{BookingID: bookingID, From: acc.EscrowStatus, Action: "dispute"}
		}
		acc.EscrowStatus = models.EscrowDisputed
		acc.DisputeNotes = notes
		l.logger.Warn("escrow disputed", zap.String("bookingID", bookingID), zap.String("notes", notes))
		return true, nil
	})
}

// ForceRelease is the administrative override. It ignores release
// conditions and always records who released and why.
func (l *Ledger) ForceRelease(ctx context.Context, admin models.Principal, bookingID, notes string) (*models.EscrowAccount, error) {
	if !admin.IsAdmin() {
		return nil, ErrNotAdmin
	}
	if notes == "" {
		return nil, ErrNotesRequired
	}
	return l.mutate(ctx, bookingID, func(acc *models.EscrowAccount) (bool, error) {
		switch acc.EscrowStatus {
		case models.EscrowHolding, models.EscrowPartialRelease, models.EscrowDisputed:
		default:
			return false, &TransitionError{BookingID: bookingID, From: acc.EscrowStatus, Action: "force release"}
		}
		now := l.now()
		acc.EscrowStatus = models.EscrowReleased
		acc.ReleasedAt = &now
		acc.ReleaseNotes = fmt.Sprintf("force released by %s: %s", admin.ID, notes)
		l.logger.Warn("escrow force released",
			zap.String("bookingID", bookingID),
			zap.String("adminID", admin.ID),
			zap.String("notes", notes))
		return true, nil
	})
}

// Void returns held funds to the payer. Only an untouched holding account can
// be voided; voiding twice is a no-op.
func (l *Ledger) Void(ctx context.Context, bookingID, reason string) (*models.EscrowAccount, error) {
	return l.mutate(ctx, bookingID, func(acc *models.EscrowAccount) (bool, error) {
		switch acc.EscrowStatus {
		case models.EscrowHolding:
		case models.EscrowVoided:
			return false, nil
		default:
			return false, &TransitionError{BookingID: bookingID, From: acc.EscrowStatus, Action: "void"}
		}
		if err := l.refund(ctx, acc, reason); err != nil {
			return false, err
		}
		acc.EscrowStatus = models.EscrowVoided
		acc.ReleaseNotes = "voided: " + reason
		l.logger.Info("escrow voided", zap.String("bookingID", bookingID), zap.String("reason", reason))
		return true, nil
	})
}

// ForceVoid settles a dispute in the payer's favour. Only a dispute raised
// before any funds left escrow can be refunded.
func (l *Ledger) ForceVoid(ctx context.Context, admin models.Principal, bookingID, notes string) (*models.EscrowAccount, error) {
	if !admin.IsAdmin() {
		return nil, ErrNotAdmin
	}
	if notes == "" {
		return nil, ErrNotesRequired
	}
	return l.mutate(ctx, bookingID, func(acc *models.EscrowAccount) (bool, error) {
		switch {
		case acc.EscrowStatus == models.EscrowVoided:
			return false, nil
		case acc.EscrowStatus != models.EscrowDisputed || acc.ReleasedAt != nil:
			return false, &TransitionError{BookingID: bookingID, From: acc.EscrowStatus, Action: "force void"}
		}
		if err := l.refund(ctx, acc, notes); err != nil {
			return false, err
		}
		acc.EscrowStatus = models.EscrowVoided
		acc.ReleaseNotes = fmt.Sprintf("voided by %s: %s", admin.ID, notes)
		l.logger.Warn("escrow force voided",
			zap.String("bookingID", bookingID),
			zap.String("adminID", admin.ID),
			zap.String("notes", notes))
		return true, nil
	})
}

// refund is keyed on the booking so a Void retried after a failed write
// does not pay out twice.
func (l *Ledger) refund(ctx context.Context, acc *models.EscrowAccount, reason string) error {
	if acc.GatewayRef == "" || l.refunder == nil {
		return nil
	}
	if err := l.refunder.Refund(ctx, acc.BookingID, acc.GatewayRef, reason); err != nil {
		return fmt.Errorf("escrow: refund %s: %w", acc.GatewayRef, err)
	}
	return nil
}

// mutate loads the account under its booking lock, applies fn to a copy and
// persists the copy. Nothing is written when fn fails or reports no change.
func (l *Ledger) mutate(ctx context.Context, bookingID string, fn func(acc *models.EscrowAccount) (bool, error)) (*models.EscrowAccount, error) {
	unlock := l.locks.Lock(bookingID)
	defer unlock()

	current, err := l.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("escrow: load %s: %w", bookingID, err)
	}
	next := *current
	changed, err := fn(&next)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}
	next.UpdatedAt = l.now()
	mustBalance(&next)

	if err := l.repo.Update(ctx, &next); err != nil {
		return nil, fmt.Errorf("escrow: persist %s: %w", bookingID, err)
	}
	return &next, nil
}

func unmetEvidence(c models.ReleaseConditions, ev models.ReleaseEvidence) []string {
	var unmet []string
	if c.RequiresOTP && !ev.OTPSatisfied {
		unmet = append(unmet, ConditionOTP)
	}
	if c.RequiresRating && !ev.RatingSubmitted {
		unmet = append(unmet, ConditionRating)
	}
	if c.RequiresAdminApproval && !ev.AdminApproved {
		unmet = append(unmet, ConditionAdminApproval)
	}
	return unmet
}

// mustBalance panics when the account's amounts do not add up. Amounts only
// ever come from payout.Compute, so a mismatch is a defect.
func mustBalance(acc *models.EscrowAccount) {
	switch {
	case acc.PlatformAmount < 0 || acc.DirectAmount < 0 || acc.CommissionAmount < 0 ||
		acc.GSTOnCommission < 0 || acc.NetPayoutAmount < 0:
		panic(fmt.Sprintf("escrow %s: negative amount in %+v", acc.BookingID, *acc))
	case acc.PlatformAmount+acc.DirectAmount != acc.TotalBookingAmount:
		panic(fmt.Sprintf("escrow %s: platform %d + direct %d != total %d",
			acc.BookingID, acc.PlatformAmount, acc.DirectAmount, acc.TotalBookingAmount))
	case acc.NetPayoutAmount != acc.PlatformAmount-acc.CommissionAmount-acc.GSTOnCommission:
		panic(fmt.Sprintf("escrow %s: net %d != platform %d - commission %d - gst %d",
			acc.BookingID, acc.NetPayoutAmount, acc.PlatformAmount, acc.CommissionAmount, acc.GSTOnCommission))
	}
}
