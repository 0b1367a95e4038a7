package recorder

import (
	"errors"
	"fmt"
)

// State is the user-visible session state.
type State int

const (
	Idle State = iota
	Recording
	Processing
	// Cancelling is transient; it settles to Idle after Config.SettleDelay.
	Cancelling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Cancelling:
		return "cancelling"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EventKind names what happened on a transition.
type EventKind int

const (
	EventRecording EventKind = iota
	EventProcessing
	EventCompleted
	EventNoSpeech
	EventFailed
	EventTimedOut
	EventCancelling
	EventDiscarded
	EventIdle
)

var eventNames = [...]string{
	EventRecording:  "recording",
	EventProcessing: "processing",
	EventCompleted:  "completed",
	EventNoSpeech:   "no_speech",
	EventFailed:     "failed",
	EventTimedOut:   "timed_out",
	EventCancelling: "cancelling",
	EventDiscarded:  "discarded",
	EventIdle:       "idle",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is announced on every transition. State is the state entered.
type Event struct {
	Kind      EventKind
	State     State
	RequestID string
	// Text is the inserted text on EventCompleted.
	Text string
	// Degraded marks a completion that fell back to the raw transcript.
	Degraded bool
	Err      error
}

// Announcer is the status channel to the UI layer.
type Announcer interface {
	Announce(Event)
}

// AnnouncerFunc adapts a function to Announcer.
type AnnouncerFunc func(Event)

// Announce calls f.
func (f AnnouncerFunc) Announce(e Event) { f(e) }

// Inserter puts finished text into the active field.
type Inserter interface {
	Insert(text string)
}

// InserterFunc adapts a function to Inserter.
type InserterFunc func(string)

// Insert calls f.
func (f InserterFunc) Insert(text string) { f(text) }

var (
	// ErrInvalidState is returned for an action the current state does not allow.
	ErrInvalidState = errors.New("recorder: action not allowed in current state")
	// ErrRequestMismatch is returned by Stop for an id other than the current session's.
	ErrRequestMismatch = errors.New("recorder: request id does not match session")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("recorder: closed")
)
