package repositories

import "errors"

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
	// ErrNoCopiesAvailable is returned when a borrow finds the counter at zero.
	ErrNoCopiesAvailable = errors.New("no copies available")
	// ErrAlreadyVerified is returned when a verification is consumed for a user
	// whose email was already verified.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrCounterOutOfRange is returned when a return would push the available
	// count above the total.
	ErrCounterOutOfRange = errors.New("copy counter out of range")
)
