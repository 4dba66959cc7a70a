package dispatch

type dispatchError struct {
	code string
	msg  string
}

func (e *dispatchError) Error() string { return e.msg }
func (e *dispatchError) Code() string  { return e.code }

var (
	ErrFreelancerBusy       = &dispatchError{code: "freelancer_busy", msg: "freelancer already has an open offer"}
	ErrOfferAlreadyResolved = &dispatchError{code: "offer_already_resolved", msg: "offer was already resolved"}
	ErrOfferNotFound        = &dispatchError{code: "not_found", msg: "offer not found"}
	ErrNotTarget            = &dispatchError{code: "forbidden", msg: "only the offered freelancer can decide"}
	ErrInvalidOffer         = &dispatchError{code: "invalid_request", msg: "offer needs a freelancer, a service and a positive budget"}
	ErrInvalidOutcome       = &dispatchError{code: "invalid_request", msg: "decision must be accepted or rejected"}
	ErrShuttingDown         = &dispatchError{code: "unavailable", msg: "dispatch is shutting down"}
)
