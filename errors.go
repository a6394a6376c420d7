package guard

import "errors"

// guardError is the concrete type behind the package's sentinel errors.
// A distinct type lets callers separate infrastructure rejections from
// errors produced by the wrapped operation, which are always returned
// unchanged.
type guardError string

func (e guardError) Error() string { return string(e) }

// Sentinel errors returned by the reliability layer itself.
var (
	// ErrCircuitOpen is returned when the breaker rejects a call without
	// invoking the operation.
	ErrCircuitOpen error = guardError("circuit breaker is open")
	// ErrRateLimited is returned when the token bucket has no token
	// available in non-blocking mode.
	ErrRateLimited error = guardError("rate limited")
	// ErrBulkheadFull is returned when all concurrency slots are in use.
	ErrBulkheadFull error = guardError("bulkhead full")
	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout error = guardError("operation timed out")
	// ErrRetriesExhausted wraps the last error once every retry attempt
	// has been used.
	ErrRetriesExhausted error = guardError("retries exhausted")
)

type (
	// transient marks a wrapped error as retryable.
	transient struct{ err error }

	// permanent marks a wrapped error as terminal: retry stops
	// immediately and the breaker still counts it as a failure.
	permanent struct{ err error }
)

func (e *transient) Error() string { return "transient: " + e.err.Error() }
func (e *transient) Unwrap() error { return e.err }

func (e *permanent) Error() string { return "permanent: " + e.err.Error() }
func (e *permanent) Unwrap() error { return e.err }

// Transient marks err as retryable. Returns nil for nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return &transient{err: err}
}

// Permanent marks err as terminal, stopping any retry loop early.
// Returns nil for nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanent{err: err}
}

// IsPermanent reports whether err carries a Permanent mark anywhere in its
// chain. Returns false for nil and for unclassified errors.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	var p *permanent

	return errors.As(err, &p)
}

// IsTransient reports whether err should be treated as retryable.
// Unclassified errors are retryable; only a Permanent mark makes an error
// terminal. Returns false for nil.
func IsTransient(err error) bool {
	return err != nil && !IsPermanent(err)
}
