package escrow

import (
	"fmt"
	"strings"

	"hireflow/models"
)

// Condition names reported by ConditionsNotMetError.
const (
	ConditionOTP           = "otp"
	ConditionRating        = "rating"
	ConditionAdminApproval = "admin_approval"
	ConditionDirectPayment = "direct_payment"
)

// ConditionsNotMetError rejects a release attempt. The caller may retry with
// more evidence.
type ConditionsNotMetError struct {
	BookingID string
	Unmet     []string
}

func (e *ConditionsNotMetError) Error() string {
	return fmt.Sprintf("release conditions not met: [%s]", strings.Join(e.Unmet, ", "))
}

func (e *ConditionsNotMetError) Code() string { return "conditions_not_met" }

func (e *ConditionsNotMetError) UnmetConditions() []string { return e.Unmet }

// TransitionError is returned when an operation is not valid from the
// account's current status.
type TransitionError struct {
	BookingID string
	From      models.EscrowStatus
	Action    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("escrow for booking %s cannot %s while %s", e.BookingID, e.Action, e.From)
}

func (e *TransitionError) Code() string { return "invalid_transition" }

type requestError struct {
	code string
	msg  string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Code() string  { return e.code }

var (
	ErrNotAdmin      = &requestError{code: "forbidden", msg: "only an admin can force a release"}
	ErrNotesRequired = &requestError{code: "invalid_request", msg: "release notes are required"}
)
