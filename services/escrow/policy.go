package escrow

import (
	"fmt"

	"hireflow/models"
	"hireflow/services/payout"

	"github.com/shopspring/decimal"
)

// PolicyConfig is the configured money policy for every new escrow account.
type PolicyConfig struct {
	CommissionRate       decimal.Decimal
	GSTRate              decimal.Decimal
	AdvancePlatformRatio decimal.Decimal
	CashPlatformRatio    decimal.Decimal
	RequireRating        bool
	RequireAdminApproval bool
}

// Policy is what Open needs for one booking.
type Policy struct {
	Method         payout.Method
	CommissionRate decimal.Decimal
	GSTRate        decimal.Decimal
	Conditions     models.ReleaseConditions
}

// ParsePolicyConfig parses the configured decimal strings. A rate or ratio
// outside [0,1] fails here so a bad deployment never opens an account.
func ParsePolicyConfig(commission, gst, advanceRatio, cashRatio string, requireRating, requireAdmin bool) (PolicyConfig, error) {
	var cfg PolicyConfig
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"commission rate", commission, &cfg.CommissionRate},
		{"gst rate", gst, &cfg.GSTRate},
		{"advance platform ratio", advanceRatio, &cfg.AdvancePlatformRatio},
		{"cash platform ratio", cashRatio, &cfg.CashPlatformRatio},
	}
	one := decimal.NewFromInt(1)
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return PolicyConfig{}, fmt.Errorf("%w: %s %q is not a decimal", payout.ErrInvalidAmount, f.name, f.raw)
		}
		if d.IsNegative() || d.GreaterThan(one) {
			return PolicyConfig{}, fmt.Errorf("%w: %s %s outside [0,1]", payout.ErrInvalidAmount, f.name, d)
		}
		*f.dst = d
	}
	cfg.RequireRating = requireRating
	cfg.RequireAdminApproval = requireAdmin
	return cfg, nil
}

// For maps a booking payment method onto a split and its release gates.
// Cash bookings are settled in person, so only the platform share is held
// and no presence or rating gate applies to it.
func (c PolicyConfig) For(method models.PaymentMethod) (Policy, error) {
	p := Policy{CommissionRate: c.CommissionRate, GSTRate: c.GSTRate}
	switch method {
	case models.PaymentPlatform:
		p.Method = payout.FullPlatform{}
	case models.PaymentAdvance:
		p.Method = payout.SplitPlatform{PlatformRatio: c.AdvancePlatformRatio}
	case models.PaymentCash:
		p.Method = payout.SplitPlatform{PlatformRatio: c.CashPlatformRatio}
		return p, nil
	default:
		return Policy{}, fmt.Errorf("%w: unknown payment method %q", payout.ErrInvalidAmount, method)
	}
	p.Conditions = models.ReleaseConditions{
		RequiresOTP:           true,
		RequiresRating:        c.RequireRating,
		RequiresAdminApproval: c.RequireAdminApproval,
	}
	return p, nil
}
