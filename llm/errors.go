package llm

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error is a classified backend failure.
type Error struct {
	Provider string
	// Status is the HTTP status when the backend replied, else 0.
	Status int
	// Retryable is false for rejected credentials and malformed requests.
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("llm: %s (HTTP %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("llm: %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FromStatus classifies a backend reply status. 0 means no reply.
func FromStatus(provider string, status int, err error) *Error {
	retryable := status == 0 || status >= 500 || status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout
	return &Error{Provider: provider, Status: status, Retryable: retryable, Err: err}
}

// IsRetryable reports whether err is worth another attempt. Unclassified
// errors are retried.
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Retryable
	}
	return err != nil
}
