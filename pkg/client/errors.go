package client

import (
	"errors"
	"fmt"
)

// AuthError is returned for 401/403 responses that the caller did not (or
// could not) declare as expected absence.
type AuthError struct {
	Status int
	Method string
	URL    string
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("not authorized: status=%d [%s] %s -> %s", e.Status, e.Method, e.URL, e.Body)
}

// StatusError is returned for any other non-2xx response
type StatusError struct {
	Status int
	Method string
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response: status=%d [%s] %s -> %s", e.Status, e.Method, e.URL, e.Body)
}

// DecodeError is returned when a response that should be JSON is not
type DecodeError struct {
	Method string
	URL    string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("API returned invalid JSON: [%s] %s: %v", e.Method, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TransportError is returned when no response was received (DNS, refused
// connection, timeout) or the body could not be read.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("could not make API call: [%s] %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsAuth reports whether err is an authorization failure
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// StatusCode extracts the HTTP status from an AuthError or StatusError, or
// returns 0.
func StatusCode(err error) int {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Status
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
