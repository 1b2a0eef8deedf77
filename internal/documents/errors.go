package documents

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned when a status change would leave a
	// terminal state or the document is no longer PENDING.
	ErrInvalidTransition = errors.New("invalid status transition")
)
