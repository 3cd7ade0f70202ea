package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidJSON is the cause of every KindDecode error produced by a non-JSON body.
var ErrInvalidJSON = errors.New("response body is not valid JSON")

type ErrorKind int

const (
	KindTransport ErrorKind = iota + 1 // network failure, no usable response
	KindStatus                         // non-2xx response
	KindDecode                         // body not JSON or not the expected shape
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the typed failure of a backend call. Message is the server's
// own message when it supplied one.
type Error struct {
	Kind     ErrorKind
	Method   string
	Endpoint string
	Status   int
	Message  string
	cause    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// UserMessage is what a toast should show.
func (e *Error) UserMessage() string {
	return e.Message
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports a 401 from the backend (expired or revoked token).
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// Message returns the user-facing text for any error.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}
