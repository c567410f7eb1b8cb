package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrInvalidTransition = errors.New("booking status transition not allowed")

	// ErrStatusConflict means the stored status no longer matches the status
	// the caller read, so a concurrent writer got there first.
	ErrStatusConflict = errors.New("booking status changed concurrently")

	ErrCapacityExceeded = errors.New("event capacity exceeded")
)
