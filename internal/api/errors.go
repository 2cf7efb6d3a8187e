package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork wraps every failure of the transport, including HTTP error statuses
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse is returned when a response matches no known shape
	ErrMalformedResponse = errors.New("malformed response")
	// ErrConfiguration is returned before any request when a profile or
	// request parameter is unusable
	ErrConfiguration = errors.New("invalid configuration")
)

// StatusError is returned by the HTTP transport for status codes >= 400
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// Is makes errors.Is(err, ErrNetwork) true for status errors
func (e *StatusError) Is(target error) bool {
	return target == ErrNetwork
}

// Fault is a structured XML-RPC error reported by the remote server
type Fault struct {
	Code   string `json:"faultCode"`
	String string `json:"faultString"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.String)
}
