package domain

import "fmt"

// ErrorKind classifies how a geocoding exchange failed.
type ErrorKind int

const (
	// ErrorKindConnection means the transport failed before a response was
	// obtained (DNS, TCP, TLS, timeout).
	ErrorKindConnection ErrorKind = iota + 1
	// ErrorKindHTTPStatus means a response arrived with a status other than 200.
	ErrorKindHTTPStatus
	// ErrorKindParse means the response body was not a JSON object.
	ErrorKindParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindConnection:
		return "connection"
	case ErrorKindHTTPStatus:
		return "http status"
	case ErrorKindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// GeocodeError is the failure delivered through a completion callback's
// error slot. Exchanges never fail any other way: there are no retries and
// nothing is thrown past the callback.
type GeocodeError struct {
	Kind ErrorKind
	// StatusCode is the literal HTTP status, set for ErrorKindHTTPStatus.
	StatusCode int
	// Err is the underlying cause, when one exists.
	Err error
}

func (e *GeocodeError) Error() string {
	switch e.Kind {
	case ErrorKindHTTPStatus:
		return fmt.Sprintf("geocoding API error: status %d", e.StatusCode)
	case ErrorKindParse:
		return fmt.Sprintf("geocoding response parse error: %v", e.Err)
	default:
		return fmt.Sprintf("geocoding connection error: %v", e.Err)
	}
}

func (e *GeocodeError) Unwrap() error { return e.Err }

// NewConnectionError wraps a transport failure.
func NewConnectionError(err error) *GeocodeError {
	return &GeocodeError{Kind: ErrorKindConnection, Err: err}
}

// NewHTTPStatusError reports a non-200 response status.
func NewHTTPStatusError(status int) *GeocodeError {
	return &GeocodeError{Kind: ErrorKindHTTPStatus, StatusCode: status}
}

// NewParseError wraps a response body that could not be parsed as a JSON object.
func NewParseError(err error) *GeocodeError {
	return &GeocodeError{Kind: ErrorKindParse, Err: err}
}
