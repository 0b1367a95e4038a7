package errors

import (
	"fmt"
	"maps"
)

// AppError is what every layer returns once a failure has been classified.
// The HTTP layer renders it with ToResponse; Cause stays server-side.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches on code, so errors.Is(err, NoSpeechDetected()) holds through
// any amount of wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause attaches cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into e and returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// New builds an error with an explicit status; retryability follows code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Retryable: IsRetryableCode(code)}
}

// coded builds an error whose status and retryability come from the code table.
func coded(code ErrorCode, message string) *AppError {
	return New(code, message, StatusOf(code))
}

// Validation is a generic INVALID_INPUT.
func Validation(message string) *AppError {
	return coded(ErrCodeInvalidInput, message)
}

// InvalidInput names the offending field in details.
func InvalidInput(field, reason string) *AppError {
	e := coded(ErrCodeInvalidInput, "Invalid input: "+reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// MissingField reports an absent required field.
func MissingField(field string) *AppError {
	return coded(ErrCodeMissingField, "Missing required field: "+field).WithDetail("field", field)
}

// UnsupportedMedia rejects audio whose container or encoding is not accepted.
func UnsupportedMedia(reason string) *AppError {
	return coded(ErrCodeUnsupportedMedia, "Unsupported audio: "+reason)
}

// Unauthorized rejects a caller. An empty reason gets a generic message.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return coded(ErrCodeUnauthorized, reason)
}

// RateLimited means the caller spent its window.
func RateLimited() *AppError {
	return coded(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.")
}

// NoSpeechDetected means the recording held nothing to transcribe.
func NoSpeechDetected() *AppError {
	return coded(ErrCodeNoSpeechDetected, "No speech was detected in the recording.")
}

// TranscriptionFailed wraps a speech-to-text fault. reason is logged and
// returned in details; cause is not.
func TranscriptionFailed(reason string, cause error) *AppError {
	return coded(ErrCodeTranscriptionFailed, "Transcription failed. Please try again.").
		WithDetail("reason", reason).WithCause(cause)
}

// FormattingFailed wraps a language model fault.
func FormattingFailed(cause error) *AppError {
	return coded(ErrCodeFormattingFailed, "Formatting failed. Please try again.").WithCause(cause)
}

// ServiceUnavailable reports a backend that cannot serve right now.
func ServiceUnavailable(service string) *AppError {
	return coded(ErrCodeServiceUnavailable, fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service)).
		WithDetail("service", service)
}

// Timeout reports an operation that ran out of budget.
func Timeout(operation string) *AppError {
	return coded(ErrCodeTimeout, "The request took too long. Please try again.").WithDetail("operation", operation)
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return coded(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.").WithCause(cause)
}
