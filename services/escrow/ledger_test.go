package escrow

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"hireflow/database"
	"hireflow/database/repository/escrowRepo"
	"hireflow/models"
	"hireflow/services/payout"

	"go.uber.org/zap"
)

// fakeRefunder dedupes on the booking id the way the gateway's idempotency
// key does.
type fakeRefunder struct {
	mu       sync.Mutex
	refs     []string
	keys     []string
	refunded map[string]bool
	err      error
}

func (f *fakeRefunder) Refund(_ context.Context, bookingID, ref, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, bookingID)
	if f.refunded == nil {
		f.refunded = make(map[string]bool)
	}
	if f.refunded[bookingID] {
		return nil
	}
	f.refunded[bookingID] = true
	f.refs = append(f.refs, ref)
	return nil
}

func testPolicyConfig(t *testing.T) PolicyConfig {
	t.Helper()
	cfg, err := ParsePolicyConfig("0.15", "0.18", "0.30", "0.20", true, false)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return cfg
}

func newTestLedger(t *testing.T) (*Ledger, *escrowRepo.MemoryEscrowRepo, *fakeRefunder) {
	t.Helper()
	repo := escrowRepo.NewMemoryEscrowRepo()
	ref := &fakeRefunder{}
	return NewLedger(repo, ref, zap.NewNop()), repo, ref
}

func openFor(t *testing.T, l *Ledger, id string, total int64, method models.PaymentMethod) *models.EscrowAccount {
	t.Helper()
	p, err := testPolicyConfig(t).For(method)
	if err != nil {
		t.Fatalf("policy for %s: %v", method, err)
	}
	acc, err := l.Open(context.Background(), id, total, p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return acc
}

func assertBalanced(t *testing.T, acc *models.EscrowAccount) {
	t.Helper()
	if acc.PlatformAmount+acc.DirectAmount != acc.TotalBookingAmount {
		t.Errorf("platform %d + direct %d != total %d", acc.PlatformAmount, acc.DirectAmount, acc.TotalBookingAmount)
	}
	if acc.NetPayoutAmount != acc.PlatformAmount-acc.CommissionAmount-acc.GSTOnCommission {
		t.Errorf("net payout %d does not match deductions", acc.NetPayoutAmount)
	}
}

func TestOpenFullPlatform(t *testing.T) {
	l, _, _ := newTestLedger(t)
	acc := openFor(t, l, "b1", 1000, models.PaymentPlatform)

	if acc.EscrowStatus != models.EscrowHolding {
		t.Fatalf("status = %s, want holding", acc.EscrowStatus)
	}
	if acc.CommissionAmount != 150 || acc.GSTOnCommission != 27 || acc.NetPayoutAmount != 823 {
		t.Fatalf("got commission=%d gst=%d net=%d", acc.CommissionAmount, acc.GSTOnCommission, acc.NetPayoutAmount)
	}
	want := models.ReleaseConditions{RequiresOTP: true, RequiresRating: true}
	if acc.ReleaseConditions != want {
		t.Fatalf("conditions = %+v, want %+v", acc.ReleaseConditions, want)
	}
	assertBalanced(t, acc)
}

func TestOpenTwiceFails(t *testing.T) {
	l, _, _ := newTestLedger(t)
	openFor(t, l, "b1", 1000, models.PaymentPlatform)
	p, _ := testPolicyConfig(t).For(models.PaymentPlatform)
	if _, err := l.Open(context.Background(), "b1", 1000, p); !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestOpenRejectsInvalidAmount(t *testing.T) {
	l, _, _ := newTestLedger(t)
	p, _ := testPolicyConfig(t).For(models.PaymentPlatform)
	if _, err := l.Open(context.Background(), "b1", 0, p); !errors.Is(err, payout.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParsePolicyConfigRejectsOutOfRange(t *testing.T) {
	cases := [][4]string{
		{"1.5", "0.18", "0.3", "0"},
		{"0.15", "-1", "0.3", "0"},
		{"0.15", "0.18", "abc", "0"},
		{"0.15", "0.18", "0.3", "2"},
	}
	for _, c := range cases {
		if _, err := ParsePolicyConfig(c[0], c[1], c[2], c[3], false, false); !errors.Is(err, payout.ErrInvalidAmount) {
			t.Errorf("%v: expected ErrInvalidAmount, got %v", c, err)
		}
	}
}

func TestCashPolicyHasNoGates(t *testing.T) {
	l, _, _ := newTestLedger(t)
	acc := openFor(t, l, "cash", 1000, models.PaymentCash)
	if acc.ReleaseConditions.RequiresOTP || acc.ReleaseConditions.RequiresRating || acc.ReleaseConditions.RequiresAdminApproval {
		t.Fatalf("cash account should carry no gates: %+v", acc.ReleaseConditions)
	}
	if acc.PlatformAmount != 200 || acc.DirectAmount != 800 {
		t.Fatalf("split = %d/%d, want 200/800", acc.PlatformAmount, acc.DirectAmount)
	}
}

func TestAttemptReleaseReportsUnmetConditions(t *testing.T) {
	l, repo, _ := newTestLedger(t)
	openFor(t, l, "b1", 1000, models.PaymentPlatform)

	_, err := l.AttemptRelease(context.Background(), "b1", models.ReleaseEvidence{OTPSatisfied: true})
	var notMet *ConditionsNotMetError
	if !errors.As(err, &notMet) {
		t.Fatalf("expected ConditionsNotMetError, got %v", err)
	}
	if !reflect.DeepEqual(notMet.Unmet, []string{ConditionRating}) {
		t.Fatalf("unmet = %v, want [rating]", notMet.Unmet)
	}

	acc, _ := repo.GetByBookingID(context.Background(), "b1")
	if acc.EscrowStatus != models.EscrowHolding || acc.ReleasedAt != nil {
		t.Fatalf("failed release must not change the account: %+v", acc)
	}
}

func TestAttemptReleaseFullPlatform(t *testing.T) {
	l, _, _ := newTestLedger(t)
	openFor(t, l, "b1", 1000, models.PaymentPlatform)

	acc, err := l.AttemptRelease(context.Background(), "b1", models.ReleaseEvidence{OTPSatisfied: true, RatingSubmitted: true})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if acc.EscrowStatus != models.EscrowReleased || acc.ReleasedAt == nil {
		t.Fatalf("status = %s releasedAt = %v", acc.EscrowStatus, acc.ReleasedAt)
	}
	assertBalanced(t, acc)
}

func TestSplitReleaseGoesPartialUntilDirectPaid(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	openFor(t, l, "b1", 1000, models.PaymentAdvance)
	ev := models.ReleaseEvidence{OTPSatisfied: true, RatingSubmitted: true}

	acc, err := l.AttemptRelease(ctx, "b1", ev)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if acc.EscrowStatus != models.EscrowPartialRelease {
		t.Fatalf("status = %s, want partial_release", acc.EscrowStatus)
	}

	_, err = l.AttemptRelease(ctx, "b1", ev)
	var notMet *ConditionsNotMetError
	if !errors.As(err, &notMet) || notMet.Unmet[0] != ConditionDirectPayment {
		t.Fatalf("expected direct_payment unmet, got %v", err)
	}

	if _, err := l.MarkDirectPaymentConfirmed(ctx, "b1", "pi_1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	acc, err = l.AttemptRelease(ctx, "b1", ev)
	if err != nil {
		t.Fatalf("second release: %v", err)
	}
	if acc.EscrowStatus != models.EscrowReleased {
		t.Fatalf("status = %s, want released", acc.EscrowStatus)
	}
	assertBalanced(t, acc)
}

func TestMarkDirectPaymentConfirmedIsIdempotent(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	openFor(t, l, "b1", 1000, models.PaymentAdvance)

	first, err := l.MarkDirectPaymentConfirmed(ctx, "b1", "pi_1")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	second, err := l.MarkDirectPaymentConfirmed(ctx, "b1", "pi_2")
	if err != nil {
		t.Fatalf("confirm again: %v", err)
	}
	if second.Version != first.Version || second.GatewayRef != "pi_1" {
		t.Fatalf("second confirm changed the account: %+v", second)
	}
}

func TestDisputeAndForceRelease(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	openFor(t, l, "b1", 1000, models.PaymentPlatform)

	if _, err := l.RaiseDispute(ctx, "b1", "no show"); err != nil {
		t.Fatalf("dispute: %v", err)
	}
	full := models.ReleaseEvidence{OTPSatisfied: true, RatingSubmitted: true, AdminApproved: true}
	var te *TransitionError
	if _, err := l.AttemptRelease(ctx, "b1", full); !errors.As(err, &te) {
		t.Fatalf("disputed account must not release normally, got %v", err)
	}

	employer := models.Principal{ID: "e1", Role: models.RoleEmployer}
	if _, err := l.ForceRelease(ctx, employer, "b1", "settled"); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	admin := models.Principal{ID: "a1", Role: models.RoleAdmin}
	if _, err := l.ForceRelease(ctx, admin, "b1", ""); !errors.Is(err, ErrNotesRequired) {
		t.Fatalf("expected ErrNotesRequired, got %v", err)
	}
	acc, err := l.ForceRelease(ctx, admin, "b1", "settled by phone")
	if err != nil {
		t.Fatalf("force release: %v", err)
	}
	if acc.EscrowStatus != models.EscrowReleased || acc.ReleaseNotes == "" || acc.ReleasedAt == nil {
		t.Fatalf("unexpected account after force release: %+v", acc)
	}
	assertBalanced(t, acc)
}

func TestVoidRefundsOnlyWhileHolding(t *testing.T) {
	l, _, ref := newTestLedger(t)
	ctx := context.Background()
	openFor(t, l, "b1", 1000, models.PaymentPlatform)
	if _, err := l.MarkDirectPaymentConfirmed(ctx, "b1", "pi_9"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	acc, err := l.Void(ctx, "b1", "cancelled by employer")
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if acc.EscrowStatus != models.EscrowVoided {
		t.Fatalf("status = %s, want voided", acc.EscrowStatus)
	}
	if len(ref.refs) != 1 || ref.refs[0] != "pi_9" {
		t.Fatalf("refunds = %v", ref.refs)
	}
	if _, err := l.Void(ctx, "b1", "again"); err != nil {
		t.Fatalf("second void should be a no-op: %v", err)
	}
	if len(ref.refs) != 1 {
		t.Fatalf("second void refunded again")
	}

	openFor(t, l, "b2", 1000, models.PaymentPlatform)
	if _, err := l.AttemptRelease(ctx, "b2", models.ReleaseEvidence{OTPSatisfied: true, RatingSubmitted: true}); err != nil {
		t.Fatalf("release: %v", err)
	}
	var te *TransitionError
	if _, err := l.Void(ctx, "b2", "too late"); !errors.As(err, &te) {
		t.Fatalf("released account must not void, got %v", err)
	}
}

func TestVoidKeepsHoldingWhenRefundFails(t *testing.T) {
	l, repo, ref := newTestLedger(t)
	ctx := context.Background()
	openFor(t, l, "b1", 1000, models.PaymentPlatform)
	l.MarkDirectPaymentConfirmed(ctx, "b1", "pi_1")
	ref.err = errors.New("gateway down")

	if _, err := l.Void(ctx, "b1", "cancel"); err == nil {
		t.Fatal("expected refund failure")
	}
	acc, _ := repo.GetByBookingID(ctx, "b1")
	if acc.EscrowStatus != models.EscrowHolding {
		t.Fatalf("status = %s, want holding", acc.EscrowStatus)
	}
}

func TestVoidRetryAfterFailedWriteRefundsOnce(t *testing.T) {
	l, repo, ref := newTestLedger(t)
	ctx := context.Background()
	openFor(t, l, "b1", 1000, models.PaymentPlatform)
	l.MarkDirectPaymentConfirmed(ctx, "b1", "pi_1")
	repo.FailNextUpdate = errors.New("mongo: write timeout")

	if _, err := l.Void(ctx, "b1", "cancel"); err == nil {
		t.Fatal("expected persist failure")
	}
	acc, err := l.Void(ctx, "b1", "cancel")
	if err != nil {
		t.Fatalf("retry void: %v", err)
	}
	if acc.EscrowStatus != models.EscrowVoided {
		t.Fatalf("status = %s, want voided", acc.EscrowStatus)
	}
	if !reflect.DeepEqual(ref.keys, []string{"b1", "b1"}) {
		t.Fatalf("refund keys = %v, want the booking id on both attempts", ref.keys)
	}
	if len(ref.refs) != 1 {
		t.Fatalf("refunds = %v, want exactly one", ref.refs)
	}
}

func TestForceVoidSettlesDisputeForPayer(t *testing.T) {
	admin := models.Principal{ID: "adm-1", Role: models.RoleAdmin}
	tests := []struct {
		name    string
		setup   func(l *Ledger)
		who     models.Principal
		notes   string
		wantErr error
		wantTE  bool
		status  models.EscrowStatus
	}{
		{
			name:   "disputed while holding",
			setup:  func(l *Ledger) { l.RaiseDispute(context.Background(), "b1", "locked") },
			who:    admin,
			notes:  "no show",
			status: models.EscrowVoided,
		},
		{
			name:    "not an admin",
			setup:   func(l *Ledger) { l.RaiseDispute(context.Background(), "b1", "locked") },
			who:     models.Principal{ID: "emp-1"},
			notes:   "no show",
			wantErr: ErrNotAdmin,
		},
		{
			name:    "notes missing",
			setup:   func(l *Ledger) { l.RaiseDispute(context.Background(), "b1", "locked") },
			who:     admin,
			wantErr: ErrNotesRequired,
		},
		{
			name:   "not disputed",
			setup:  func(l *Ledger) {},
			who:    admin,
			notes:  "no show",
			wantTE: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, ref := newTestLedger(t)
			ctx := context.Background()
			openFor(t, l, "b1", 1000, models.PaymentPlatform)
			l.MarkDirectPaymentConfirmed(ctx, "b1", "pi_1")
			tt.setup(l)

			acc, err := l.ForceVoid(ctx, tt.who, "b1", tt.notes)
			var te *TransitionError
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.wantTE:
				if !errors.As(err, &te) {
					t.Fatalf("err = %v, want TransitionError", err)
				}
			default:
				if err != nil {
					t.Fatalf("force void: %v", err)
				}
				if acc.EscrowStatus != tt.status || len(ref.refs) != 1 {
					t.Fatalf("status=%s refunds=%v", acc.EscrowStatus, ref.refs)
				}
			}
		})
	}
}

func TestForceVoidRefusesPartiallyReleasedDispute(t *testing.T) {
	admin := models.Principal{ID: "adm-1", Role: models.RoleAdmin}
	l, _, ref := newTestLedger(t)
	ctx := context.Background()
	openFor(t, l, "b1", 1000, models.PaymentAdvance)
	if _, err := l.AttemptRelease(ctx, "b1", models.ReleaseEvidence{OTPSatisfied: true, RatingSubmitted: true}); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := l.RaiseDispute(ctx, "b1", "direct portion unpaid"); err != nil {
		t.Fatalf("dispute: %v", err)
	}
	var te *TransitionError
	if _, err := l.ForceVoid(ctx, admin, "b1", "refund"); !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransitionError", err)
	}
	if len(ref.keys) != 0 {
		t.Fatalf("refund attempted: %v", ref.keys)
	}
}

func TestConcurrentReleaseHappensOnce(t *testing.T) {
	l, _, _ := newTestLedger(t)
	openFor(t, l, "b1", 1000, models.PaymentPlatform)
	ev := models.ReleaseEvidence{OTPSatisfied: true, RatingSubmitted: true}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.AttemptRelease(context.Background(), "b1", ev); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if successes != 1 {
		t.Fatalf("release succeeded %d times, want 1", successes)
	}
}

func TestPayoutMatchesStoredAccount(t *testing.T) {
	l, _, _ := newTestLedger(t)
	for i, method := range []models.PaymentMethod{models.PaymentPlatform, models.PaymentAdvance, models.PaymentCash} {
		id := string(rune('a' + i))
		acc := openFor(t, l, id, 1337, method)
		calc, err := l.Payout(context.Background(), id)
		if err != nil {
			t.Fatalf("payout: %v", err)
		}
		if calc.NetPayout != acc.NetPayoutAmount || calc.Breakdown.PlatformHeld != acc.PlatformAmount {
			t.Fatalf("%s: recomputed %+v, stored %+v", method, calc, acc)
		}
	}
}

func TestMustBalancePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	mustBalance(&models.EscrowAccount{TotalBookingAmount: 100, PlatformAmount: 60, DirectAmount: 30})
}
