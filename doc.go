// Package guard provides reliability primitives for calling unreliable
// dependencies: a circuit breaker, a retry policy with bounded backoff, and
// a token-bucket rate limiter, plus supporting patterns (timeout, bulkhead,
// hedge, fallback, stale cache).
//
// The primitives are independent and compose by wrapping a caller-supplied
// operation. Guard[T] chains them behind a single Do method; each is also
// usable on its own. All time-dependent behavior goes through an injectable
// Clock so tests stay deterministic.
package guard
