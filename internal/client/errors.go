package client

import (
	"errors"
	"fmt"
)

// NetworkError reports an unreachable backend or a non-success response.
type NetworkError struct {
	Op         string // "list datasets", "search", ...
	StatusCode int    // zero when no response was received
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func transportError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Message: err.Error(), Err: err}
}

func statusError(op string, status int, detail string) *NetworkError {
	msg := fmt.Sprintf("Request failed with status code %d", status)
	if detail != "" {
		msg += ": " + detail
	}
	return &NetworkError{Op: op, StatusCode: status, Message: msg}
}
