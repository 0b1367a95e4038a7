package transcription

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/provider"
)

// Provider is a speech-to-text backend.
type Provider interface {
	provider.Provider

	// Transcribe turns the artifact into text. A result with empty Text means
	// the audio held no speech; that is not an error. Transcribe never
	// releases the artifact.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// Request is one transcription call.
type Request struct {
	Audio *audio.Artifact
	// Language is a BCP-47 tag, "auto" or empty.
	Language string
}

// Result is a transcription outcome.
type Result struct {
	Text     string
	Language string
	Duration time.Duration
	Metadata map[string]any
}

// NoSpeech reports whether the result holds no recognizable speech.
func (r *Result) NoSpeech() bool {
	return r == nil || strings.TrimSpace(r.Text) == ""
}

// ErrProviderUnavailable means the backend cannot be reached or is not
// configured. Callers may fall back to another provider.
var ErrProviderUnavailable = stderrors.New("transcription: provider unavailable")

// Unavailable wraps cause so that errors.Is(err, ErrProviderUnavailable) holds.
func Unavailable(provider string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrProviderUnavailable, provider)
	}
	return fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, provider, cause)
}

// FailedError is a backend that was reached but could not produce a transcript.
type FailedError struct {
	Provider string
	Reason   string
	Err      error
}

// Failed builds a *FailedError.
func Failed(provider, reason string, err error) *FailedError {
	return &FailedError{Provider: provider, Reason: reason, Err: err}
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription: %s failed: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("transcription: %s failed: %s", e.Provider, e.Reason)
}

func (e *FailedError) Unwrap() error { return e.Err }

// NewRegistry creates a registry for transcription backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
