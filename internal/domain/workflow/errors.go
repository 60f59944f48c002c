package workflow

import "errors"

// Sentinels returned by the transaction state machine. Callers map them onto
// the domain error taxonomy; see guardError in the workflow engine.
var (
	// ErrInvalidTransition means no trigger leads from the current status to the requested one
	ErrInvalidTransition = errors.New("status transition not configured")

	// ErrInvalidState means a raw value is not one of the four transaction statuses
	ErrInvalidState = errors.New("unknown transaction status")

	// ErrGuardFailed wraps the refusal of the role guard
	ErrGuardFailed = errors.New("status change refused")
)
