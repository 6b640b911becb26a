package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("apiclient: session invalid")
	// ErrNotFound is returned when the addressed task or subtask does not exist.
	ErrNotFound = errors.New("apiclient: not found")
	// ErrMalformedResponse is returned when a payload fails decoding or
	// validation.
	ErrMalformedResponse = errors.New("apiclient: malformed response")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, msg)
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// TransportError is a request that never produced a response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsOffline reports whether err came from the transport rather than the server.
func IsOffline(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
