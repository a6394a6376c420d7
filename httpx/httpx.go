package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/matthewharwood/guard"
)

// ErrorClass tells the reliability layer how to treat an HTTP status code.
type ErrorClass int

const (
	// Success means the request succeeded (e.g. 2xx).
	Success ErrorClass = iota
	// Transient means the error is retriable (e.g. 429, 503).
	Transient
	// Permanent means the error is non-retriable (e.g. 400).
	Permanent
)

// Classifier maps an HTTP status code to an ErrorClass. DefaultClassifier
// covers the common convention; inject your own to override it per client.
type Classifier func(statusCode int) ErrorClass

// DefaultClassifier treats 2xx and 3xx as success, 429 and all 5xx as
// transient, and every other 4xx as permanent.
func DefaultClassifier(statusCode int) ErrorClass {
	switch {
	case statusCode < 400:
		return Success
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return Transient
	default:
		return Permanent
	}
}

// StatusError is returned when the Classifier marks a status code as
// Transient or Permanent. The original response remains accessible for
// header and body inspection; its body has not been read or closed.
type StatusError struct {
	Response   *http.Response
	StatusCode int
}

// Error returns a short description of the failing status.
func (e *StatusError) Error() string {
	return "http status " + strconv.Itoa(e.StatusCode)
}

// Client executes HTTP requests through a guard, translating status codes
// into the transient/permanent classification that drives retry and
// breaker decisions.
type Client struct {
	hc *http.Client
	g  *guard.Guard[*http.Response]
	cl Classifier
}

// NewClient creates a Client named name, built from the given guard
// options. A nil hc falls back to http.DefaultClient; a nil classifier
// falls back to [DefaultClassifier].
func NewClient(name string, hc *http.Client, cl Classifier, opts ...any) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}

	if cl == nil {
		cl = DefaultClassifier
	}

	return &Client{
		hc: hc,
		g:  guard.New[*http.Response](name, opts...),
		cl: cl,
	}
}

// Do executes req through the guard. Each attempt clones the request with
// the attempt's context and, when req.GetBody is set, a fresh body. A
// consumed body is not replayable, so bodied requests without GetBody
// should not be combined with retries. Classified failures surface as a
// *StatusError wrapped with the matching guard classification; transport
// errors pass through unmarked and are therefore retried.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.g.Do(req.Context(), func(ctx context.Context) (*http.Response, error) {
		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, guard.Permanent(err)
			}

			attempt.Body = body
		}

		resp, err := c.hc.Do(attempt)
		if err != nil {
			return nil, err
		}

		switch c.cl(resp.StatusCode) {
		case Success:
			return resp, nil
		case Permanent:
			return nil, guard.Permanent(&StatusError{Response: resp, StatusCode: resp.StatusCode})
		default:
			return nil, guard.Transient(&StatusError{Response: resp, StatusCode: resp.StatusCode})
		}
	})
}

// Get issues a GET through the guard.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	return c.Do(req)
}
