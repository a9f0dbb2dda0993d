package mentorship

import "errors"

var (
	// ErrNotFound is returned when a referenced user, mentor or mentee is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a transition is not legal from the
	// current relationship state.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation error")
)
