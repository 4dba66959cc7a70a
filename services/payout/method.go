package payout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Method decides how a booking total is split between platform escrow and
// direct employer-to-freelancer payment. The set of methods is closed.
type Method interface {
	Name() string
	split(total int64) (platform int64, err error)
}

// FullPlatform holds the whole amount in escrow.
type FullPlatform struct{}

func (FullPlatform) Name() string { return "full_platform" }

func (FullPlatform) split(total int64) (int64, error) { return total, nil }

// SplitPlatform holds PlatformRatio of the total in escrow; the remainder is
// paid directly.
type SplitPlatform struct {
	PlatformRatio decimal.Decimal
}

func (SplitPlatform) Name() string { return "split_platform" }

func (m SplitPlatform) split(total int64) (int64, error) {
	if !inUnitRange(m.PlatformRatio) {
		return 0, fmt.Errorf("%w: platform ratio %s outside [0,1]", ErrInvalidAmount, m.PlatformRatio)
	}
	return Round(decimal.NewFromInt(total).Mul(m.PlatformRatio)), nil
}

// MethodFromName rebuilds a method from its stored name and ratio.
func MethodFromName(name, ratio string) (Method, error) {
	switch name {
	case FullPlatform{}.Name():
		return FullPlatform{}, nil
	case SplitPlatform{}.Name():
		r, err := decimal.NewFromString(ratio)
		if err != nil {
			return nil, fmt.Errorf("%w: bad platform ratio %q", ErrInvalidAmount, ratio)
		}
		return SplitPlatform{PlatformRatio: r}, nil
	}
	return nil, fmt.Errorf("%w: unknown split method %q", ErrInvalidAmount, name)
}

// Ratio returns the stored form of the method's ratio, empty for full platform.
func Ratio(m Method) string {
	if s, ok := m.(SplitPlatform); ok {
		return s.PlatformRatio.String()
	}
	return ""
}
