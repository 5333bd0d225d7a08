package broadcast

import (
	"fmt"
)

// RequestError reports a transport-level failure: DNS resolution, TLS
// handshake, timeouts, or a response body that could not be read or decoded.
// The underlying cause is available via errors.Unwrap.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("broadcast: %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx HTTP response from the API. Body holds the
// raw response body so callers can inspect the server's error shape.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("broadcast: %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("broadcast: %s: unexpected status %d: %s", e.Op, e.StatusCode, body)
}
