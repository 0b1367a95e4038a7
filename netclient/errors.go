package netclient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/httpclient"
	"github.com/kbukum/voxboard/httpclient/rest"
)

// Kind is the client-side failure class.
type Kind int

// Failure kinds. KindUnknown also covers replies that could not be decoded.
const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthentication
	KindServiceUnavailable
	KindNoSpeech
	KindTranscriptionFailed
	KindFormattingFailed
	KindTimeout
	KindCancelled
	KindRateLimited
)

var kindNames = [...]string{
	KindUnknown:             "unknown",
	KindValidation:          "validation",
	KindAuthentication:      "authentication",
	KindServiceUnavailable:  "service_unavailable",
	KindNoSpeech:            "no_speech",
	KindTranscriptionFailed: "transcription_failed",
	KindFormattingFailed:    "formatting_failed",
	KindTimeout:             "timeout",
	KindCancelled:           "cancelled",
	KindRateLimited:         "rate_limited",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a failed backend call. Code and Status are empty for failures
// that never produced a reply.
type Error struct {
	Kind    Kind
	Code    apperrors.ErrorCode
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("netclient: %s (HTTP %d %s): %s", e.Kind, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("netclient: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns err's Kind, KindUnknown for foreign errors and nil.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Kind == k
}

var kindByCode = map[apperrors.ErrorCode]Kind{
	apperrors.ErrCodeInvalidInput:        KindValidation,
	apperrors.ErrCodeMissingField:        KindValidation,
	apperrors.ErrCodeUnsupportedMedia:    KindValidation,
	apperrors.ErrCodeUnauthorized:        KindAuthentication,
	apperrors.ErrCodeServiceUnavailable:  KindServiceUnavailable,
	apperrors.ErrCodeNoSpeechDetected:    KindNoSpeech,
	apperrors.ErrCodeTranscriptionFailed: KindTranscriptionFailed,
	apperrors.ErrCodeFormattingFailed:    KindFormattingFailed,
	apperrors.ErrCodeTimeout:             KindTimeout,
	apperrors.ErrCodeRateLimited:         KindRateLimited,
	apperrors.ErrCodeInternal:            KindUnknown,
}

// classify maps a failed call onto the client taxonomy.
func classify(ctx context.Context, err error) *Error {
	var decodeErr *rest.DecodeError
	if stderrors.As(err, &decodeErr) {
		return &Error{Kind: KindUnknown, Status: decodeErr.StatusCode, Message: "unreadable response", Err: err}
	}
	if ctx.Err() != nil && stderrors.Is(ctx.Err(), context.Canceled) {
		return &Error{Kind: KindCancelled, Message: "call cancelled", Err: err}
	}

	var he *httpclient.Error
	if !stderrors.As(err, &he) {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return &Error{Kind: KindTimeout, Message: "deadline exceeded", Err: err}
		}
		return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
	}

	switch he.Code {
	case httpclient.ErrCodeCanceled:
		return &Error{Kind: KindCancelled, Message: "call cancelled", Err: err}
	case httpclient.ErrCodeTimeout:
		return &Error{Kind: KindTimeout, Message: "backend did not answer in time", Err: err}
	case httpclient.ErrCodeConnection:
		return &Error{Kind: KindServiceUnavailable, Message: "backend unreachable", Err: err}
	}

	out := &Error{Kind: kindForStatus(he.StatusCode), Status: he.StatusCode, Message: he.Message, Err: err}
	var body apperrors.ErrorResponse
	if json.Unmarshal(he.Body, &body) == nil && body.Error.Code != "" {
		out.Code = body.Error.Code
		out.Message = body.Error.Message
		if k, ok := kindByCode[body.Error.Code]; ok {
			out.Kind = k
		}
	}
	// Credentials are judged by status even when the body disagrees.
	if he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden {
		out.Kind = KindAuthentication
	}
	return out
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthentication
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return KindValidation
	case http.StatusUnprocessableEntity:
		return KindNoSpeech
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	case http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindUnknown
	}
}
