package booking

import (
	"errors"
	"fmt"

	"hireflow/database"
	"hireflow/models"
	"hireflow/utils"
)

// GuardFailedError rejects a transition whose precondition does not hold.
// The booking is left as it was.
type GuardFailedError struct {
	BookingID string
	From      models.BookingStatus
	Event     string
	Reason    string
	Err       error
}

func (e *GuardFailedError) Error() string {
	return fmt.Sprintf("cannot %s booking %s while %s: %s", e.Event, e.BookingID, e.From, e.Reason)
}

func (e *GuardFailedError) Unwrap() error { return e.Err }

func (e *GuardFailedError) Code() string { return "guard_failed" }

func guardFailed(b *models.Booking, event string, err error) *GuardFailedError {
	reason := "transition not allowed"
	if err != nil {
		reason = err.Error()
	}
	return &GuardFailedError{BookingID: b.ID, From: b.Status, Event: event, Reason: reason, Err: err}
}

// guardErr reports a domain rejection from a collaborator as a failed guard.
// Storage and infrastructure errors are returned as they are.
func guardErr(b *models.Booking, event string, err error) error {
	var coded utils.CodedError
	var store *database.StoreError
	if !errors.As(err, &coded) || errors.As(err, &store) {
		return err
	}
	return guardFailed(b, event, err)
}

type requestError struct {
	code string
	msg  string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Code() string  { return e.code }

var (
	ErrForbidden      = &requestError{code: "forbidden", msg: "caller may not act on this booking"}
	ErrInvalidRating  = &requestError{code: "invalid_request", msg: "rating must be between 1 and 5"}
	ErrInvalidRequest = &requestError{code: "invalid_request", msg: "booking request is incomplete"}
	ErrInvalidOutcome = &requestError{code: "invalid_request", msg: "outcome must be release or refund"}
)
