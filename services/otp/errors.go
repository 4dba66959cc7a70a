package otp

type gateError struct {
	code string
	msg  string
}

func (e *gateError) Error() string { return e.msg }
func (e *gateError) Code() string  { return e.code }

var (
	ErrOTPMismatch    = &gateError{code: "otp_mismatch", msg: "code does not match"}
	ErrOTPLocked      = &gateError{code: "otp_locked", msg: "too many wrong codes; phase is locked"}
	ErrOTPNotIssued   = &gateError{code: "otp_not_issued", msg: "no active code for this phase"}
	ErrOTPAlreadyUsed = &gateError{code: "invalid_transition", msg: "code for this phase was already used"}
	ErrInvalidPhase   = &gateError{code: "invalid_request", msg: "phase must be start or end"}
	errNoRecord       = &gateError{code: "not_found", msg: "otp record not found"}
)
