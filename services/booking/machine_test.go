package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"hireflow/database"
	"hireflow/database/repository/bookingRepo"
	"hireflow/database/repository/escrowRepo"
	"hireflow/models"
	"hireflow/services/escrow"
	"hireflow/services/otp"
	"hireflow/services/payout"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// codeRecorder wraps the real gate and remembers the last code per phase.
type codeRecorder struct {
	*otp.Gate
	mu    sync.Mutex
	codes map[models.OTPPhase]string
}

func (r *codeRecorder) Issue(ctx context.Context, id string, phase models.OTPPhase) (string, bool, error) {
	code, first, err := r.Gate.Issue(ctx, id, phase)
	if err == nil {
		r.mu.Lock()
		r.codes[phase] = code
		r.mu.Unlock()
	}
	return code, first, err
}

func (r *codeRecorder) code(phase models.OTPPhase) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[phase]
}

// brokenGate fails every call the way an unreachable store would.
type brokenGate struct{ err error }

func (g brokenGate) Issue(context.Context, string, models.OTPPhase) (string, bool, error) {
	return "", false, g.err
}

func (g brokenGate) Verify(context.Context, string, models.OTPPhase, string) error { return g.err }

func (g brokenGate) Consumed(context.Context, string, models.OTPPhase) (bool, error) {
	return false, g.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []models.NotificationPayload
}

func (n *recordingNotifier) DeliverOffer(context.Context, models.BookingOffer) error { return nil }

func (n *recordingNotifier) NotifyUser(_ context.Context, p models.NotificationPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
	return nil
}

type fixture struct {
	m        *Machine
	ledger   *escrow.Ledger
	codes    *codeRecorder
	notifier *recordingNotifier
	bookings *bookingRepo.MemoryBookingRepo
}

var (
	employer   = models.Principal{ID: "emp-1", Role: models.RoleEmployer}
	freelancer = models.Principal{ID: "fl-1", Role: models.RoleFreelancer}
	stranger   = models.Principal{ID: "someone", Role: models.RoleEmployer}
	admin      = models.Principal{ID: "adm-1", Role: models.RoleAdmin}
)

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()
	policy, err := escrow.ParsePolicyConfig("0.15", "0.18", "0.30", "0.20", true, false)
	if err != nil {
		t.Fatal(err)
	}
	ledger := escrow.NewLedger(escrowRepo.NewMemoryEscrowRepo(), nil, zap.NewNop())
	gate := otp.NewGate(otp.NewMemoryStore(), otp.Config{Length: 4, MaxAttempts: maxAttempts, TTL: time.Hour, BcryptCost: bcrypt.MinCost}, zap.NewNop())
	codes := &codeRecorder{Gate: gate, codes: map[models.OTPPhase]string{}}
	notifier := &recordingNotifier{}
	bookings := bookingRepo.NewMemoryBookingRepo()
	m := NewMachine(bookings, ledger, codes, notifier, policy, zap.NewNop())
	return &fixture{m: m, ledger: ledger, codes: codes, notifier: notifier, bookings: bookings}
}

func (f *fixture) create(t *testing.T, method models.PaymentMethod) *models.Booking {
	t.Helper()
	b, err := f.m.Create(context.Background(), models.BookingRequest{
		ServiceRef:    "deep-clean",
		FreelancerID:  freelancer.ID,
		EmployerID:    employer.ID,
		TotalAmount:   1000,
		PaymentMethod: method,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return b
}

func wrongCode(code string) string {
	if code == "0000" {
		return "9999"
	}
	return "0000"
}

func expectGuard(t *testing.T, err error) *GuardFailedError {
	t.Helper()
	var gf *GuardFailedError
	if !errors.As(err, &gf) {
		t.Fatalf("expected GuardFailedError, got %v", err)
	}
	return gf
}

func TestCreateComputesPaymentDetails(t *testing.T) {
	f := newFixture(t, 5)
	b := f.create(t, models.PaymentPlatform)

	if b.Status != models.BookingPending {
		t.Fatalf("status = %s", b.Status)
	}
	p := b.Payment
	if p.AdvanceAmount != 1000 || p.RemainingAmount != 0 || p.PlatformFee != 177 || p.FreelancerEarning != 823 {
		t.Fatalf("payment = %+v", p)
	}
	if p.PlatformFee+p.FreelancerEarning != p.TotalAmount || p.AdvanceAmount+p.RemainingAmount != p.TotalAmount {
		t.Fatalf("payment does not balance: %+v", p)
	}
	acc, err := f.ledger.Get(context.Background(), b.ID)
	if err != nil || acc.EscrowStatus != models.EscrowHolding {
		t.Fatalf("escrow = %+v, %v", acc, err)
	}
}

func TestCreateRejectsInvalidAmount(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.m.Create(context.Background(), models.BookingRequest{
		ServiceRef: "x", FreelancerID: "f", EmployerID: "e", TotalAmount: 0, PaymentMethod: models.PaymentPlatform,
	})
	if !errors.Is(err, payout.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestFullLifecycle(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)

	b, err := f.m.Confirm(ctx, employer, b.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.Status != models.BookingConfirmed || !b.OTP.OTPGenerated {
		t.Fatalf("after confirm: %+v", b)
	}

	if _, err := f.m.Start(ctx, employer, b.ID, f.codes.code(models.OTPStart)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employer must not start: %v", err)
	}
	b, err = f.m.Start(ctx, freelancer, b.ID, f.codes.code(models.OTPStart))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if b.Status != models.BookingInProgress || b.OTP.EndIssuedAt == nil {
		t.Fatalf("after start: %+v", b)
	}

	// Rating is required, so completion fails without consuming the end code.
	_, err = f.m.Complete(ctx, freelancer, b.ID, f.codes.code(models.OTPEnd))
	gf := expectGuard(t, err)
	var notMet *escrow.ConditionsNotMetError
	if !errors.As(gf, &notMet) || !reflect.DeepEqual(notMet.Unmet, []string{escrow.ConditionRating}) {
		t.Fatalf("expected unmet [rating], got %v", err)
	}
	current, _ := f.m.Get(ctx, employer, b.ID)
	if current.Status != models.BookingInProgress || current.OTP.EndVerifiedAt != nil {
		t.Fatalf("failed completion changed booking: %+v", current)
	}

	if _, err := f.m.SubmitRating(ctx, employer, b.ID, 5); err != nil {
		t.Fatalf("rating: %v", err)
	}
	b, err = f.m.Complete(ctx, freelancer, b.ID, f.codes.code(models.OTPEnd))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.Status != models.BookingCompleted || b.CompletedAt == nil || b.Payment.PaymentStatus != models.PaymentStatusFullyPaid {
		t.Fatalf("after complete: %+v", b)
	}
	acc, _ := f.ledger.Get(ctx, b.ID)
	if acc.EscrowStatus != models.EscrowReleased {
		t.Fatalf("escrow = %s", acc.EscrowStatus)
	}
}

func TestAdvanceBookingReleasesAfterPayment(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentAdvance)

	f.m.Confirm(ctx, freelancer, b.ID)
	f.m.Start(ctx, freelancer, b.ID, f.codes.code(models.OTPStart))
	f.m.SubmitRating(ctx, employer, b.ID, 4)
	b, err := f.m.Complete(ctx, freelancer, b.ID, f.codes.code(models.OTPEnd))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.Payment.PaymentStatus == models.PaymentStatusFullyPaid {
		t.Fatal("direct portion is unpaid; booking must not be fully paid")
	}
	acc, _ := f.ledger.Get(ctx, b.ID)
	if acc.EscrowStatus != models.EscrowPartialRelease {
		t.Fatalf("escrow = %s, want partial_release", acc.EscrowStatus)
	}

	b, err = f.m.RecordPayment(ctx, models.PaymentEvent{BookingID: b.ID, Amount: 700, GatewayRef: "pi_1", Succeeded: true})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if b.Payment.PaymentStatus != models.PaymentStatusFullyPaid || b.Payment.GatewayRef != "pi_1" {
		t.Fatalf("payment = %+v", b.Payment)
	}
	acc, _ = f.ledger.Get(ctx, b.ID)
	if acc.EscrowStatus != models.EscrowReleased {
		t.Fatalf("escrow = %s, want released", acc.EscrowStatus)
	}
}

func TestRecordPaymentBeforeCompletionMarksAdvancePaid(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentAdvance)

	b, err := f.m.RecordPayment(ctx, models.PaymentEvent{BookingID: b.ID, Amount: 300, GatewayRef: "pi_2", Succeeded: true})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if b.Payment.PaymentStatus != models.PaymentStatusAdvancePaid {
		t.Fatalf("status = %s", b.Payment.PaymentStatus)
	}
	acc, _ := f.ledger.Get(ctx, b.ID)
	if !acc.ReleaseConditions.DirectPaymentConfirmed {
		t.Fatal("direct payment should be confirmed")
	}
}

func TestStartMismatchLeavesStateAndLockDisputes(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)
	f.m.Confirm(ctx, employer, b.ID)
	bad := wrongCode(f.codes.code(models.OTPStart))

	_, err := f.m.Start(ctx, freelancer, b.ID, bad)
	if gf := expectGuard(t, err); !errors.Is(gf, otp.ErrOTPMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	current, _ := f.m.Get(ctx, freelancer, b.ID)
	if current.Status != models.BookingConfirmed {
		t.Fatalf("status = %s", current.Status)
	}

	_, err = f.m.Start(ctx, freelancer, b.ID, bad)
	if gf := expectGuard(t, err); !errors.Is(gf, otp.ErrOTPLocked) {
		t.Fatalf("expected lock, got %v", err)
	}
	acc, _ := f.ledger.Get(ctx, b.ID)
	if acc.EscrowStatus != models.EscrowDisputed {
		t.Fatalf("escrow = %s, want disputed", acc.EscrowStatus)
	}
}

func TestCancelVoidsEscrow(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)
	f.m.Confirm(ctx, employer, b.ID)

	if _, err := f.m.Cancel(ctx, stranger, b.ID, "nope"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger cancel: %v", err)
	}
	b, err := f.m.Cancel(ctx, employer, b.ID, "plans changed")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if b.Status != models.BookingCancelled || b.CancelledAt == nil || b.CompletedAt != nil {
		t.Fatalf("after cancel: %+v", b)
	}
	acc, _ := f.ledger.Get(ctx, b.ID)
	if acc.EscrowStatus != models.EscrowVoided {
		t.Fatalf("escrow = %s", acc.EscrowStatus)
	}
}

func TestCancelRefusedAfterDispute(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)
	f.ledger.RaiseDispute(ctx, b.ID, "complaint")

	_, err := f.m.Cancel(ctx, employer, b.ID, "cancel")
	expectGuard(t, err)
	current, _ := f.m.Get(ctx, employer, b.ID)
	if current.Status != models.BookingPending {
		t.Fatalf("status = %s", current.Status)
	}
}

func TestAbortPaymentCancelsPendingBooking(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)

	b, err := f.m.AbortPayment(ctx, models.PaymentEvent{BookingID: b.ID, Reason: "card_declined"})
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if b.Status != models.BookingCancelled {
		t.Fatalf("status = %s", b.Status)
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	cancelled := f.create(t, models.PaymentPlatform)
	f.m.Cancel(ctx, employer, cancelled.ID, "x")

	completed := f.create(t, models.PaymentPlatform)
	f.m.Confirm(ctx, employer, completed.ID)
	f.m.Start(ctx, freelancer, completed.ID, f.codes.code(models.OTPStart))
	f.m.SubmitRating(ctx, employer, completed.ID, 5)
	if _, err := f.m.Complete(ctx, freelancer, completed.ID, f.codes.code(models.OTPEnd)); err != nil {
		t.Fatalf("complete: %v", err)
	}

	events := map[string]func(id string) error{
		"confirm":  func(id string) error { _, err := f.m.Confirm(ctx, employer, id); return err },
		"start":    func(id string) error { _, err := f.m.Start(ctx, freelancer, id, "1234"); return err },
		"complete": func(id string) error { _, err := f.m.Complete(ctx, freelancer, id, "1234"); return err },
		"cancel":   func(id string) error { _, err := f.m.Cancel(ctx, employer, id, "late"); return err },
	}
	for _, target := range []struct {
		id   string
		want models.BookingStatus
	}{{cancelled.ID, models.BookingCancelled}, {completed.ID, models.BookingCompleted}} {
		for name, fire := range events {
			if err := fire(target.id); err == nil {
				t.Errorf("%s on %s booking succeeded", name, target.want)
			}
			b, _ := f.m.Get(ctx, admin, target.id)
			if b.Status != target.want {
				t.Fatalf("%s moved %s booking to %s", name, target.want, b.Status)
			}
		}
	}
}

func TestEvidenceOperations(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)

	if _, err := f.m.SubmitRating(ctx, employer, b.ID, 6); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("rating 6: %v", err)
	}
	if _, err := f.m.SubmitRating(ctx, employer, b.ID, 5); err == nil {
		t.Fatal("pending booking cannot be rated")
	}
	if _, err := f.m.ApproveRelease(ctx, employer, b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employer approve: %v", err)
	}
	b, err := f.m.ApproveRelease(ctx, admin, b.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !b.Evidence.AdminApproved || b.Evidence.ApprovedBy != admin.ID {
		t.Fatalf("evidence = %+v", b.Evidence)
	}
}

func TestReissueOTP(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)

	if _, err := f.m.ReissueOTP(ctx, employer, b.ID); err == nil {
		t.Fatal("pending booking has no code to reissue")
	}
	f.m.Confirm(ctx, employer, b.ID)
	if _, err := f.m.ReissueOTP(ctx, freelancer, b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("freelancer reissue: %v", err)
	}
	code, err := f.m.ReissueOTP(ctx, employer, b.ID)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if _, err := f.m.Start(ctx, freelancer, b.ID, code); err != nil {
		t.Fatalf("start with reissued code: %v", err)
	}
}

func TestGetRestrictsToParties(t *testing.T) {
	f := newFixture(t, 5)
	b := f.create(t, models.PaymentPlatform)
	if _, err := f.m.Get(context.Background(), stranger, b.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger get: %v", err)
	}
	if _, err := f.m.Get(context.Background(), admin, b.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
}

func TestExpireStaleCancelsUnpaidPendingBookings(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	stale := f.create(t, models.PaymentPlatform)
	paid := f.create(t, models.PaymentAdvance)
	if _, err := f.m.RecordPayment(ctx, models.PaymentEvent{BookingID: paid.ID, Amount: 300, GatewayRef: "pi_1", Succeeded: true}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	base := time.Now()
	f.m.now = func() time.Time { return base.Add(3 * time.Hour) }
	fresh := f.create(t, models.PaymentPlatform)

	n, err := f.m.ExpireStale(ctx, 2*time.Hour)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}

	got, _ := f.m.Get(ctx, admin, stale.ID)
	if got.Status != models.BookingCancelled || got.CancelReason != staleReason {
		t.Fatalf("stale booking = %s (%q)", got.Status, got.CancelReason)
	}
	acc, _ := f.ledger.Get(ctx, stale.ID)
	if acc.EscrowStatus != models.EscrowVoided {
		t.Fatalf("escrow = %s", acc.EscrowStatus)
	}
	for _, id := range []string{paid.ID, fresh.ID} {
		b, _ := f.m.Get(ctx, admin, id)
		if b.Status != models.BookingPending {
			t.Fatalf("booking %s = %s, want pending", id, b.Status)
		}
	}
}

func TestStartRetryAfterFailedWrite(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)
	f.m.Confirm(ctx, employer, b.ID)
	code := f.codes.code(models.OTPStart)

	f.bookings.FailNextUpdate = errors.New("mongo: write timeout")
	if _, err := f.m.Start(ctx, freelancer, b.ID, code); err == nil {
		t.Fatal("expected write failure")
	}
	current, _ := f.m.Get(ctx, freelancer, b.ID)
	if current.Status != models.BookingConfirmed {
		t.Fatalf("status = %s, want confirmed", current.Status)
	}

	b, err := f.m.Start(ctx, freelancer, b.ID, code)
	if err != nil {
		t.Fatalf("retry start: %v", err)
	}
	if b.Status != models.BookingInProgress || b.OTP.StartVerifiedAt == nil || b.OTP.EndIssuedAt == nil {
		t.Fatalf("after retry: %+v", b)
	}

	f.m.SubmitRating(ctx, employer, b.ID, 5)
	if _, err := f.m.Complete(ctx, freelancer, b.ID, f.codes.code(models.OTPEnd)); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestCompleteRetryAfterReleaseWriteFails(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)
	f.m.Confirm(ctx, employer, b.ID)
	f.m.Start(ctx, freelancer, b.ID, f.codes.code(models.OTPStart))
	f.m.SubmitRating(ctx, employer, b.ID, 5)
	code := f.codes.code(models.OTPEnd)

	f.bookings.FailNextUpdate = errors.New("mongo: write timeout")
	if _, err := f.m.Complete(ctx, freelancer, b.ID, code); err == nil {
		t.Fatal("expected write failure")
	}
	acc, _ := f.ledger.Get(ctx, b.ID)
	if acc.EscrowStatus != models.EscrowReleased {
		t.Fatalf("escrow = %s, want released", acc.EscrowStatus)
	}

	b, err := f.m.Complete(ctx, freelancer, b.ID, code)
	if err != nil {
		t.Fatalf("retry complete: %v", err)
	}
	if b.Status != models.BookingCompleted || b.OTP.EndVerifiedAt == nil || b.Payment.PaymentStatus != models.PaymentStatusFullyPaid {
		t.Fatalf("after retry: %+v", b)
	}
}

func TestInfrastructureErrorsAreNotGuardFailures(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)
	f.m.Confirm(ctx, employer, b.ID)
	pending := f.create(t, models.PaymentPlatform)

	dial := errors.New("dial tcp 10.0.3.7:6379: connect: connection refused")
	conflict := fmt.Errorf("otp: load: %w", database.ErrVersionConflict)
	tests := []struct {
		name string
		err  error
		call func() error
	}{
		{"confirm with redis down", dial, func() error {
			_, err := f.m.Confirm(ctx, employer, pending.ID)
			return err
		}},
		{"start with redis down", dial, func() error {
			_, err := f.m.Start(ctx, freelancer, b.ID, "1234")
			return err
		}},
		{"reissue with store conflict", conflict, func() error {
			_, err := f.m.ReissueOTP(ctx, employer, b.ID)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.m.otp = brokenGate{err: tt.err}
			err := tt.call()
			var gf *GuardFailedError
			if errors.As(err, &gf) {
				t.Fatalf("infrastructure error reported as guard failure: %v", err)
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
		})
	}
	current, _ := f.m.Get(ctx, employer, b.ID)
	if current.Status != models.BookingConfirmed {
		t.Fatalf("status = %s, want confirmed", current.Status)
	}
}

// lockedBooking returns a confirmed booking whose start code locked after
// one wrong attempt, leaving its escrow disputed.
func lockedBooking(t *testing.T, f *fixture) *models.Booking {
	t.Helper()
	ctx := context.Background()
	b := f.create(t, models.PaymentPlatform)
	f.m.Confirm(ctx, employer, b.ID)
	_, err := f.m.Start(ctx, freelancer, b.ID, wrongCode(f.codes.code(models.OTPStart)))
	if gf := expectGuard(t, err); !errors.Is(gf, otp.ErrOTPLocked) {
		t.Fatalf("expected lock, got %v", err)
	}
	acc, _ := f.ledger.Get(ctx, b.ID)
	if acc.EscrowStatus != models.EscrowDisputed {
		t.Fatalf("escrow = %s, want disputed", acc.EscrowStatus)
	}
	return b
}

func TestResolveDispute(t *testing.T) {
	tests := []struct {
		name       string
		outcome    DisputeOutcome
		preRelease bool
		wantStatus models.BookingStatus
		wantEscrow models.EscrowStatus
	}{
		{"release", ResolveRelease, false, models.BookingCompleted, models.EscrowReleased},
		{"refund", ResolveRefund, false, models.BookingCancelled, models.EscrowVoided},
		{"release after force release", ResolveRelease, true, models.BookingCompleted, models.EscrowReleased},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1)
			ctx := context.Background()
			b := lockedBooking(t, f)
			if tt.preRelease {
				if _, err := f.ledger.ForceRelease(ctx, admin, b.ID, "customer confirmed work"); err != nil {
					t.Fatalf("force release: %v", err)
				}
			}

			b, err := f.m.ResolveDispute(ctx, admin, b.ID, tt.outcome, "reviewed chat log")
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if b.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", b.Status, tt.wantStatus)
			}
			acc, _ := f.ledger.Get(ctx, b.ID)
			if acc.EscrowStatus != tt.wantEscrow {
				t.Fatalf("escrow = %s, want %s", acc.EscrowStatus, tt.wantEscrow)
			}
			if _, err := f.m.ResolveDispute(ctx, admin, b.ID, tt.outcome, "again"); err == nil {
				t.Fatal("resolved booking must not resolve again")
			} else {
				expectGuard(t, err)
			}
		})
	}
}

func TestResolveDisputeRejections(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	b := lockedBooking(t, f)

	if _, err := f.m.ResolveDispute(ctx, employer, b.ID, ResolveRelease, "mine"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employer resolve: %v", err)
	}
	if _, err := f.m.ResolveDispute(ctx, admin, b.ID, "split", "half each"); !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("bad outcome: %v", err)
	}
	if _, err := f.m.ResolveDispute(ctx, admin, b.ID, ResolveRefund, ""); !errors.Is(err, escrow.ErrNotesRequired) {
		t.Fatalf("missing notes: %v", err)
	}

	undisputed := f.create(t, models.PaymentPlatform)
	_, err := f.m.ResolveDispute(ctx, admin, undisputed.ID, ResolveRelease, "no dispute")
	var te *escrow.TransitionError
	if gf := expectGuard(t, err); !errors.As(gf, &te) {
		t.Fatalf("expected escrow transition error, got %v", err)
	}

	f.ledger.ForceRelease(ctx, admin, b.ID, "paid out")
	_, err = f.m.ResolveDispute(ctx, admin, b.ID, ResolveRefund, "too late")
	if gf := expectGuard(t, err); !errors.As(gf, &te) {
		t.Fatalf("expected escrow transition error, got %v", err)
	}
	current, _ := f.m.Get(ctx, admin, b.ID)
	if current.Status != models.BookingConfirmed {
		t.Fatalf("status = %s, want confirmed", current.Status)
	}
}
