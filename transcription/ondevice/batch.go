package ondevice

import (
	"context"
	"sync"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/transcription"
)

// eventBuffer bounds the per-pass event channel.
const eventBuffer = 8

// FromProvider exposes a batch transcription engine (a local whisper
// sidecar, say) as a Recognizer. Each recognizer does one pass: a final
// event and End, or a NO_MATCH error when nothing was heard.
func FromProvider(engine transcription.Provider) Factory {
	return func(_ context.Context, a *audio.Artifact) (Recognizer, error) {
		return &batchRecognizer{engine: engine, audio: a}, nil
	}
}

type batchRecognizer struct {
	engine transcription.Provider
	audio  *audio.Artifact

	mu   sync.Mutex
	done bool
}

func (r *batchRecognizer) Listen(ctx context.Context, language string) (<-chan Event, error) {
	events := make(chan Event, eventBuffer)

	r.mu.Lock()
	done := r.done
	r.done = true
	r.mu.Unlock()

	go func() {
		defer close(events)
		if done {
			events <- Event{Kind: EventEnd}
			return
		}
		events <- Event{Kind: EventReady}
		res, err := r.engine.Transcribe(ctx, transcription.Request{Audio: r.audio, Language: language})
		switch {
		case err != nil:
			events <- Event{Kind: EventError, Error: ErrNetwork}
		case res.NoSpeech():
			events <- Event{Kind: EventError, Error: ErrNoMatch}
		default:
			events <- Event{Kind: EventFinal, Text: res.Text}
			events <- Event{Kind: EventEnd}
		}
	}()
	return events, nil
}

func (r *batchRecognizer) Close() error { return nil }
