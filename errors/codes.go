package errors

import "net/http"

// ErrorCode is the machine-readable code sent on the wire.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeUnsupportedMedia rejects audio in an encoding we do not accept.
	ErrCodeUnsupportedMedia ErrorCode = "UNSUPPORTED_MEDIA"
	// ErrCodeUnauthorized is a missing or unknown API key.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"

	// ErrCodeNoSpeechDetected is a business outcome, not a fault.
	ErrCodeNoSpeechDetected    ErrorCode = "NO_SPEECH_DETECTED"
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeFormattingFailed    ErrorCode = "FORMATTING_FAILED"
	ErrCodeServiceUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout             ErrorCode = "TIMEOUT"

	// ErrCodeInternal covers everything unclassified. Its message never
	// carries internals.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// disposition is the fixed transport treatment of a code.
type disposition struct {
	status    int
	retryable bool
}

var dispositions = map[ErrorCode]disposition{
	ErrCodeInvalidInput:        {http.StatusBadRequest, false},
	ErrCodeMissingField:        {http.StatusBadRequest, false},
	ErrCodeUnsupportedMedia:    {http.StatusBadRequest, false},
	ErrCodeUnauthorized:        {http.StatusUnauthorized, false},
	ErrCodeRateLimited:         {http.StatusTooManyRequests, true},
	ErrCodeNoSpeechDetected:    {http.StatusUnprocessableEntity, false},
	ErrCodeTranscriptionFailed: {http.StatusBadGateway, true},
	ErrCodeFormattingFailed:    {http.StatusBadGateway, true},
	ErrCodeServiceUnavailable:  {http.StatusServiceUnavailable, true},
	ErrCodeTimeout:             {http.StatusGatewayTimeout, true},
	ErrCodeInternal:            {http.StatusInternalServerError, false},
}

// IsRetryableCode reports whether a caller may repeat a request that
// failed with code.
func IsRetryableCode(code ErrorCode) bool {
	return dispositions[code].retryable
}

// StatusOf is the HTTP status for code; unknown codes map to 500.
func StatusOf(code ErrorCode) int {
	if d, ok := dispositions[code]; ok {
		return d.status
	}
	return http.StatusInternalServerError
}
