package gateway

import "fmt"

// APIError is a non-2xx response from the Adaboards service. Message is
// the server's error body when one was sent, else the HTTP status text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool { return e.Status >= 500 }

// NetworkError is a transport failure: the request never produced an
// HTTP response. Callers may offer a retry affordance.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is a 2xx response whose body did not match the expected
// shape. It is surfaced distinctly so malformed server payloads fail
// fast instead of propagating zero values.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }
