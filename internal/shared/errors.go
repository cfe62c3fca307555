package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates input rejected before any ledger was touched.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidTransition occurs when an action is not allowed in the current status.
	ErrInvalidTransition = errors.New("invalid state transition")
)
