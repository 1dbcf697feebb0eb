package storage

import "errors"

// Error kinds shared by all store implementations. Services wrap these with
// context; the HTTP layer maps them to response codes.
var (
	// ErrNotFound marks a missing scholarship, application or document.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks input the store refuses to persist.
	ErrValidation = errors.New("validation failed")

	// ErrPrecondition marks a write whose guard no longer holds, such as
	// settling an application that is not in the approved state.
	ErrPrecondition = errors.New("precondition failed")

	// ErrConflict marks a write lost to a concurrent one, such as a payment
	// reference collision. Callers may retry with fresh state.
	ErrConflict = errors.New("conflict")
)
