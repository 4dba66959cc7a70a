// Package payout holds the commission and tax arithmetic for escrowed
// bookings. Everything here is pure.
package payout

import (
	"fmt"

	"hireflow/models"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for a non-positive total, a rate outside [0,1],
// or rates whose deductions would exceed the platform share.
var ErrInvalidAmount error = invalidAmount{}

type invalidAmount struct{}

func (invalidAmount) Error() string { return "invalid amount" }
func (invalidAmount) Code() string  { return "invalid_amount" }

// Breakdown is the itemized view shown to the freelancer.
type Breakdown struct {
	PlatformHeld       int64 `json:"platformHeld"`
	CommissionDeducted int64 `json:"commissionDeducted"`
	GSTDeducted        int64 `json:"gstDeducted"`
	FinalPayout        int64 `json:"finalPayout"`
}

// Calculation is the full result of Compute.
type Calculation struct {
	TotalAmount      int64           `json:"totalAmount"`
	PlatformAmount   int64           `json:"platformAmount"`
	DirectAmount     int64           `json:"directAmount"`
	CommissionAmount int64           `json:"commissionAmount"`
	GSTAmount        int64           `json:"gstAmount"`
	NetPayout        int64           `json:"netPayout"`
	CommissionRate   decimal.Decimal `json:"commissionRate"`
	GSTRate          decimal.Decimal `json:"gstRate"`
	Method           string          `json:"method"`
	Breakdown        Breakdown       `json:"breakdown"`
}

// Round rounds half-up to the smallest currency unit. Amounts are never
// negative here, so half-up and half-away-from-zero agree.
func Round(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

func inUnitRange(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}

// Compute splits total according to method and deducts commission and GST on
// commission from the platform-held portion.
func Compute(total int64, commissionRate, gstRate decimal.Decimal, method Method) (Calculation, error) {
	if total <= 0 {
		return Calculation{}, fmt.Errorf("%w: total %d must be positive", ErrInvalidAmount, total)
	}
	if !inUnitRange(commissionRate) {
		return Calculation{}, fmt.Errorf("%w: commission rate %s outside [0,1]", ErrInvalidAmount, commissionRate)
	}
	if !inUnitRange(gstRate) {
		return Calculation{}, fmt.Errorf("%w: gst rate %s outside [0,1]", ErrInvalidAmount, gstRate)
	}
	if method == nil {
		return Calculation{}, fmt.Errorf("%w: no payment method", ErrInvalidAmount)
	}

	platform, err := method.split(total)
	if err != nil {
		return Calculation{}, err
	}
	commission := Round(decimal.NewFromInt(platform).Mul(commissionRate))
	gst := Round(decimal.NewFromInt(commission).Mul(gstRate))
	net := platform - commission - gst
	if net < 0 {
		return Calculation{}, fmt.Errorf("%w: deductions %d exceed platform share %d", ErrInvalidAmount, commission+gst, platform)
	}

	return Calculation{
		TotalAmount:      total,
		PlatformAmount:   platform,
		DirectAmount:     total - platform,
		CommissionAmount: commission,
		GSTAmount:        gst,
		NetPayout:        net,
		CommissionRate:   commissionRate,
		GSTRate:          gstRate,
		Method:           method.Name(),
		Breakdown: Breakdown{
			PlatformHeld:       platform,
			CommissionDeducted: commission,
			GSTDeducted:        gst,
			FinalPayout:        net,
		},
	}, nil
}

// FromAccount recomputes the calculation from a stored escrow account.
func FromAccount(acc *models.EscrowAccount) (Calculation, error) {
	commission, err := decimal.NewFromString(acc.CommissionRate)
	if err != nil {
		return Calculation{}, fmt.Errorf("%w: bad stored commission rate %q", ErrInvalidAmount, acc.CommissionRate)
	}
	gst, err := decimal.NewFromString(acc.GSTRate)
	if err != nil {
		return Calculation{}, fmt.Errorf("%w: bad stored gst rate %q", ErrInvalidAmount, acc.GSTRate)
	}
	method, err := MethodFromName(acc.SplitMethod, acc.PlatformRatio)
	if err != nil {
		return Calculation{}, err
	}
	return Compute(acc.TotalBookingAmount, commission, gst, method)
}
