package client

import (
	"errors"
	"fmt"
)

// ServiceError is an error reported by llama-server itself, either through
// an "error" field in the response body or an error status with no body.
type ServiceError struct {
	Message    string
	StatusCode int // 0 when unknown
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llama-server error (%d): %s", e.StatusCode, e.Message)
	}
	return "llama-server error: " + e.Message
}

// IsServiceError reports whether err carries a ServiceError.
func IsServiceError(err error) bool {
	var e *ServiceError
	return errors.As(err, &e)
}

// malformedResponseError signals a body that does not have the expected shape.
type malformedResponseError struct{ reason string }

func (e malformedResponseError) Error() string { return "malformed response: " + e.reason }

// ErrMalformedResponse constructs a malformedResponseError.
func ErrMalformedResponse(reason string) error { return malformedResponseError{reason: reason} }

// IsMalformedResponse reports whether err indicates an unexpected response shape.
func IsMalformedResponse(err error) bool {
	var e malformedResponseError
	return errors.As(err, &e)
}
