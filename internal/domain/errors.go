package domain

import "errors"

// Sentinel errors for the ledger core. Handlers map these to user-facing
// rejections; everything else is treated as an internal failure.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyProcessed    = errors.New("request already processed")
	ErrAlreadyRented       = errors.New("volume already rented")
	ErrNotRentable         = errors.New("volume is not rentable")
	ErrInvalidAmount       = errors.New("amount must be a positive number of coins")

	// ErrTransientConflict wraps storage-level conflicts (serialization
	// failures, deadlocks, lock timeouts). The retry wrapper re-runs the
	// whole unit of work on this error and nothing else.
	ErrTransientConflict = errors.New("transient storage conflict")
)

// IsTransient reports whether err should be retried by the transaction
// retry wrapper.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientConflict)
}
