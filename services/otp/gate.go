// Package otp issues and checks the start and end codes that prove both
// parties were present for an in-person booking.
package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hireflow/models"
	"hireflow/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Config controls code shape and retry policy.
type Config struct {
	Length      int
	MaxAttempts int
	TTL         time.Duration
	BcryptCost  int
}

// Gate is safe for concurrent use; operations on one booking are serialized.
type Gate struct {
	store    Store
	cfg      Config
	logger   *zap.Logger
	locks    utils.KeyedMutex
	generate func(length int) (string, error)
	now      func() time.Time
}

func NewGate(store Store, cfg Config, logger *zap.Logger) *Gate {
	if cfg.Length <= 0 {
		cfg.Length = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Gate{
		store:    store,
		cfg:      cfg,
		logger:   logger,
		generate: utils.GenerateNumericCode,
		now:      time.Now,
	}
}

// Issue creates or replaces the code for a phase and returns it in plain
// text. first is true when this is the booking's first code of any phase.
func (g *Gate) Issue(ctx context.Context, bookingID string, phase models.OTPPhase) (code string, first bool, err error) {
	if !phase.Valid() {
		return "", false, ErrInvalidPhase
	}
	unlock := g.locks.Lock(bookingID)
	defer unlock()

	existing, err := g.lookup(ctx, bookingID, phase)
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		switch {
		case existing.Locked:
			return "", false, ErrOTPLocked
		case existing.Consumed:
			return "", false, ErrOTPAlreadyUsed
		}
	}
	other, err := g.lookup(ctx, bookingID, phase.Other())
	if err != nil {
		return "", false, err
	}

	code, err = g.distinctCode(other)
	if err != nil {
		return "", false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), g.cfg.BcryptCost)
	if err != nil {
		return "", false, fmt.Errorf("failed to hash OTP: %w", err)
	}

	rec := &models.OTPRecord{
		BookingID: bookingID,
		Phase:     phase,
		CodeHash:  string(hash),
		IssuedAt:  g.now(),
	}
	if err := g.store.Put(ctx, rec, g.cfg.TTL); err != nil {
		return "", false, fmt.Errorf("failed to store OTP: %w", err)
	}

	first = existing == nil && other == nil
	g.logger.Info("otp issued",
		zap.String("bookingID", bookingID),
		zap.String("phase", string(phase)),
		zap.Bool("reissue", existing != nil))
	return code, first, nil
}

// distinctCode draws until the code differs from the other phase's code.
func (g *Gate) distinctCode(other *models.OTPRecord) (string, error) {
	for i := 0; i < 16; i++ {
		code, err := g.generate(g.cfg.Length)
		if err != nil {
			return "", err
		}
		if other == nil || bcrypt.CompareHashAndPassword([]byte(other.CodeHash), []byte(code)) != nil {
			return code, nil
		}
	}
	return "", errors.New("could not draw a code distinct from the other phase")
}

// Verify consumes the phase's code when presented correctly. A wrong code
// counts against the retry ceiling; reaching it locks the phase.
func (g *Gate) Verify(ctx context.Context, bookingID string, phase models.OTPPhase, presented string) error {
	if !phase.Valid() {
		return ErrInvalidPhase
	}
	unlock := g.locks.Lock(bookingID)
	defer unlock()

	rec, err := g.lookup(ctx, bookingID, phase)
	if err != nil {
		return err
	}
	switch {
	case rec == nil:
		return ErrOTPNotIssued
	case rec.Locked:
		return ErrOTPLocked
	case rec.Consumed:
		return ErrOTPMismatch
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(presented)) != nil {
		rec.Attempts++
		result := ErrOTPMismatch
		if rec.Attempts >= g.cfg.MaxAttempts {
			rec.Locked = true
			result = ErrOTPLocked
			g.logger.Warn("otp locked",
				zap.String("bookingID", bookingID),
				zap.String("phase", string(phase)),
				zap.Int("attempts", rec.Attempts))
		}
		if err := g.store.Update(ctx, rec); err != nil {
			return g.storeErr(err)
		}
		return result
	}

	now := g.now()
	rec.Consumed = true
	rec.ConsumedAt = &now
	if err := g.store.Update(ctx, rec); err != nil {
		return g.storeErr(err)
	}
	return nil
}

// Consumed reports whether the phase's code has already been accepted.
func (g *Gate) Consumed(ctx context.Context, bookingID string, phase models.OTPPhase) (bool, error) {
	if !phase.Valid() {
		return false, ErrInvalidPhase
	}
	unlock := g.locks.Lock(bookingID)
	defer unlock()

	rec, err := g.lookup(ctx, bookingID, phase)
	if err != nil || rec == nil {
		return false, err
	}
	return rec.Consumed, nil
}

func (g *Gate) lookup(ctx context.Context, bookingID string, phase models.OTPPhase) (*models.OTPRecord, error) {
	rec, err := g.store.Get(ctx, bookingID, phase)
	if errors.Is(err, errNoRecord) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (g *Gate) storeErr(err error) error {
	if errors.Is(err, errNoRecord) {
		return ErrOTPNotIssued
	}
	return fmt.Errorf("failed to update OTP: %w", err)
}
