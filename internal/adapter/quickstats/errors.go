package quickstats

import "fmt"

// TransportError wraps a network-level failure (unreachable host, timeout).
// The request may never have reached the API; retrying is the caller's call.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("quickstats transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RequestError reports a non-200 response from the API.
type RequestError struct {
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("quickstats request failed: status %d", e.StatusCode)
}

// DecodeError wraps a response body that was not the expected JSON structure.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("quickstats decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
