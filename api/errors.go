package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes client failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindConnection means the request never got an HTTP response.
	KindConnection
	// KindStatus means the backend answered with a non-2xx status.
	KindStatus
	// KindDecode means the response body could not be decoded.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method.
type Error struct {
	Kind    ErrorKind
	Op      string
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Status != 0 {
		msg = http.StatusText(e.Status)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Cause != nil {
		if msg == "" {
			return e.Op + ": " + e.Cause.Error()
		}
		return e.Op + ": " + msg + ": " + e.Cause.Error()
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ServerMessage returns the message the backend put in its error body, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return "", false
	}
	if apiErr.Kind != KindStatus || apiErr.Message == "" {
		return "", false
	}
	return apiErr.Message, true
}

// UserMessage picks the text to show for err: the backend's own message when
// it sent one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	if msg, ok := ServerMessage(err); ok {
		return msg
	}
	return fallback
}

// IsConnection reports whether err is a transport failure.
func IsConnection(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindConnection
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
