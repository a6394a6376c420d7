// Package httpx provides a resilient HTTP client adapter for the guard
// library.
//
// Client wraps a standard http.Client with a guard and a user-provided
// status code classifier that maps HTTP response codes to transient or
// permanent errors, so retry and breaker decisions follow HTTP semantics.
package httpx
