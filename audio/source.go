package audio

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"os"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Source captures audio for one session at a time. Start begins capture,
// Stop seals what was captured into an Artifact, Abort discards it.
type Source interface {
	Start(ctx context.Context, requestID string) error
	Stop(ctx context.Context) (*Artifact, error)
	Abort()
}

// ErrNotCapturing is returned by Stop and Write when no capture is running.
var ErrNotCapturing = stderrors.New("audio: not capturing")

// WAVRecorder turns raw PCM frames from a capture callback into a canonical
// WAV file in dir. Write is safe to call from the capture thread while the
// session goroutine calls Start/Stop.
type WAVRecorder struct {
	dir string

	mu      sync.Mutex
	file    *os.File
	enc     *wav.Encoder
	pending []byte
	frames  int
}

// NewWAVRecorder records into dir, or the OS temp dir when empty.
func NewWAVRecorder(dir string) *WAVRecorder {
	if dir == "" {
		dir = os.TempDir()
	}
	return &WAVRecorder{dir: dir}
}

// Start opens a fresh temp file for requestID.
func (r *WAVRecorder) Start(_ context.Context, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		return fmt.Errorf("audio: capture already running")
	}
	f, err := os.CreateTemp(r.dir, "rec-"+requestID+"-*.wav")
	if err != nil {
		return fmt.Errorf("audio: create capture file: %w", err)
	}
	r.file = f
	r.enc = wav.NewEncoder(f, Canonical.SampleRate, Canonical.BitDepth, Canonical.Channels, wavFormatPCM)
	r.pending = r.pending[:0]
	r.frames = 0
	return nil
}

// Write accepts little-endian 16-bit mono PCM bytes. A trailing odd byte is
// kept until the next Write.
func (r *WAVRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return 0, ErrNotCapturing
	}

	data := append(r.pending, p...)
	n := len(data) / 2
	samples := make([]int, n)
	for i := 0; i < n; i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(data[2*i:])))
	}
	r.pending = append(r.pending[:0], data[2*n:]...)

	if n > 0 {
		buf := &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: Canonical.Channels, SampleRate: Canonical.SampleRate},
			Data:           samples,
			SourceBitDepth: Canonical.BitDepth,
		}
		if err := r.enc.Write(buf); err != nil {
			return 0, fmt.Errorf("audio: write frames: %w", err)
		}
		r.frames += n
	}
	return len(p), nil
}

// WriteSamples accepts already-decoded samples.
func (r *WAVRecorder) WriteSamples(samples []int) error {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(s)))
	}
	_, err := r.Write(buf)
	return err
}

// Stop finalizes the WAV header and returns the sealed artifact.
func (r *WAVRecorder) Stop(_ context.Context) (*Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil, ErrNotCapturing
	}
	path := r.file.Name()
	encErr := r.enc.Close()
	closeErr := r.file.Close()
	r.file, r.enc = nil, nil
	if err := stderrors.Join(encErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("audio: seal capture: %w", err)
	}

	a, err := NewFileArtifact(path)
	if err != nil {
		return nil, err
	}
	a.Format = Canonical
	a.Duration = Duration(r.frames)
	return a, nil
}

// Abort stops capture and deletes the partial file.
func (r *WAVRecorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return
	}
	path := r.file.Name()
	_ = r.enc.Close()
	_ = r.file.Close()
	_ = os.Remove(path)
	r.file, r.enc = nil, nil
}

// Duration converts a canonical frame count to wall time.
func Duration(frames int) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(Canonical.SampleRate)
}
