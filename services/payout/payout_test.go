package payout

import (
	"errors"
	"testing"

	"hireflow/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		commission string
		gst        string
		method     Method
		platform   int64
		direct     int64
		comm       int64
		gstAmt     int64
		net        int64
	}{
		{"full platform", 1000, "0.15", "0.18", FullPlatform{}, 1000, 0, 150, 27, 823},
		{"split 30/70", 1000, "0.15", "0.18", SplitPlatform{PlatformRatio: dec("0.30")}, 300, 700, 45, 8, 247},
		{"half-up on platform share", 5, "0", "0", SplitPlatform{PlatformRatio: dec("0.5")}, 3, 2, 0, 0, 3},
		{"half-up on commission", 10, "0.15", "0", FullPlatform{}, 10, 0, 2, 0, 8},
		{"zero ratio", 800, "0.15", "0.18", SplitPlatform{PlatformRatio: dec("0")}, 0, 800, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := Compute(tt.total, dec(tt.commission), dec(tt.gst), tt.method)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if calc.PlatformAmount != tt.platform || calc.DirectAmount != tt.direct {
				t.Errorf("split = %d/%d, want %d/%d", calc.PlatformAmount, calc.DirectAmount, tt.platform, tt.direct)
			}
			if calc.CommissionAmount != tt.comm || calc.GSTAmount != tt.gstAmt || calc.NetPayout != tt.net {
				t.Errorf("deductions = %d/%d/%d, want %d/%d/%d",
					calc.CommissionAmount, calc.GSTAmount, calc.NetPayout, tt.comm, tt.gstAmt, tt.net)
			}
			if calc.PlatformAmount+calc.DirectAmount != calc.TotalAmount {
				t.Errorf("platform + direct != total")
			}
			if calc.Breakdown.FinalPayout != calc.NetPayout {
				t.Errorf("breakdown final payout %d != net %d", calc.Breakdown.FinalPayout, calc.NetPayout)
			}
		})
	}
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		commission string
		gst        string
		method     Method
	}{
		{"zero total", 0, "0.15", "0.18", FullPlatform{}},
		{"negative total", -5, "0.15", "0.18", FullPlatform{}},
		{"commission above one", 100, "1.2", "0.18", FullPlatform{}},
		{"negative gst", 100, "0.15", "-0.01", FullPlatform{}},
		{"ratio above one", 100, "0.15", "0.18", SplitPlatform{PlatformRatio: dec("1.5")}},
		{"nil method", 100, "0.15", "0.18", nil},
		{"deductions exceed platform share", 100, "1", "1", FullPlatform{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.total, dec(tt.commission), dec(tt.gst), tt.method)
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("expected ErrInvalidAmount, got %v", err)
			}
		})
	}
}

func TestFromAccountRoundTrip(t *testing.T) {
	methods := []Method{
		FullPlatform{},
		SplitPlatform{PlatformRatio: dec("0.30")},
		SplitPlatform{PlatformRatio: dec("0.333")},
	}
	for _, m := range methods {
		for total := int64(1); total <= 2500; total += 7 {
			calc, err := Compute(total, dec("0.15"), dec("0.18"), m)
			if err != nil {
				t.Fatalf("compute(%d): %v", total, err)
			}
			acc := &models.EscrowAccount{
				TotalBookingAmount: calc.TotalAmount,
				PlatformAmount:     calc.PlatformAmount,
				DirectAmount:       calc.DirectAmount,
				CommissionAmount:   calc.CommissionAmount,
				GSTOnCommission:    calc.GSTAmount,
				NetPayoutAmount:    calc.NetPayout,
				CommissionRate:     calc.CommissionRate.String(),
				GSTRate:            calc.GSTRate.String(),
				SplitMethod:        m.Name(),
				PlatformRatio:      Ratio(m),
			}
			again, err := FromAccount(acc)
			if err != nil {
				t.Fatalf("recompute(%d): %v", total, err)
			}
			if again.NetPayout != acc.NetPayoutAmount {
				t.Fatalf("%s total %d: recomputed net %d, stored %d", m.Name(), total, again.NetPayout, acc.NetPayoutAmount)
			}
		}
	}
}
