package domain

import "errors"

// Sentinel errors for the core operations. Callers match with errors.Is;
// the API layer maps them onto HTTP status codes.
var (
	// ErrInvalidInput indicates a missing or malformed required field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the referenced job, claim, or session record
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIllegalTransition indicates a job state change outside the
	// legal transition table.
	ErrIllegalTransition = errors.New("illegal state transition")

	// ErrConflict indicates an optimistic-concurrency conflict on a job
	// update. The job service retries a bounded number of times before
	// surfacing it.
	ErrConflict = errors.New("concurrent modification")

	// ErrStorageUnavailable indicates the backing store is unreachable
	// or erroring. Retryable from the caller's perspective.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDisabled indicates an optional store (blob, broadcast) is not
	// configured. Distinguishable from success so callers never mistake
	// a skipped write for a durable one.
	ErrDisabled = errors.New("store disabled")
)
