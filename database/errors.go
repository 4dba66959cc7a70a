package database

// StoreError is returned by every repository for expected storage outcomes.
type StoreError struct {
	code string
	msg  string
}

func (e *StoreError) Error() string { return e.msg }

func (e *StoreError) Code() string { return e.code }

var (
	ErrNotFound        = &StoreError{code: "not_found", msg: "record not found"}
	ErrVersionConflict = &StoreError{code: "version_conflict", msg: "record was modified concurrently"}
	ErrDuplicate       = &StoreError{code: "already_exists", msg: "record already exists"}
)
