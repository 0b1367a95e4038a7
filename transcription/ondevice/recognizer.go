package ondevice

import (
	"context"

	"github.com/kbukum/voxboard/audio"
)

// EventKind is the type of a recognizer event.
type EventKind int

const (
	EventReady EventKind = iota
	EventPartial
	EventFinal
	EventError
	// EventEnd means the input is exhausted; no further pass is needed.
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventPartial:
		return "partial"
	case EventFinal:
		return "final"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	}
	return "unknown"
}

// ErrorKind classifies recognizer errors.
type ErrorKind string

const (
	// ErrNoMatch is a pass that heard nothing recognizable. Transient.
	ErrNoMatch ErrorKind = "NO_MATCH"
	// ErrSpeechTimeout is a pass that timed out waiting for speech. Transient.
	ErrSpeechTimeout ErrorKind = "SPEECH_TIMEOUT"
	// ErrClient and the rest require a new recognizer.
	ErrClient  ErrorKind = "CLIENT"
	ErrNetwork ErrorKind = "NETWORK"
	ErrBusy    ErrorKind = "RECOGNIZER_BUSY"
	ErrAudio   ErrorKind = "AUDIO"
)

// Transient reports whether a restart of the same recognizer may succeed.
func (k ErrorKind) Transient() bool {
	return k == ErrNoMatch || k == ErrSpeechTimeout
}

// Event is one push notification from a recognizer.
type Event struct {
	Kind  EventKind
	Text  string
	Error ErrorKind
}

// Recognizer is a platform speech recognizer. Listen runs one recognition
// pass; events arrive on the returned channel, which the recognizer closes
// when the pass ends. A recognizer resumes where the previous pass stopped.
type Recognizer interface {
	Listen(ctx context.Context, language string) (<-chan Event, error)
	Close() error
}

// Factory creates a recognizer bound to one recording.
type Factory func(ctx context.Context, a *audio.Artifact) (Recognizer, error)
