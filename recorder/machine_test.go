package recorder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/netclient"
	"github.com/kbukum/voxboard/transcription"
)

type fakeSource struct {
	mu        sync.Mutex
	id        string
	aborts    int
	artifacts []*audio.Artifact
}

func (s *fakeSource) Start(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

func (s *fakeSource) Stop(context.Context) (*audio.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := []byte("RIFF")
	a := audio.NewArtifact(s.id+".wav", audio.MIMEWAV, int64(len(data)),
		func(context.Context) (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		nil)
	s.artifacts = append(s.artifacts, a)
	return a, nil
}

func (s *fakeSource) Abort() {
	s.mu.Lock()
	s.aborts++
	s.mu.Unlock()
}

func (s *fakeSource) last() *audio.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifacts[len(s.artifacts)-1]
}

type fakeBackend struct {
	transcribe func(ctx context.Context, req netclient.TranscribeRequest) (contract.Envelope, error)
	format     func(ctx context.Context, req contract.FormatRequest) (contract.Envelope, error)

	mu       sync.Mutex
	cancels  []string
	requests []netclient.TranscribeRequest
}

func (b *fakeBackend) TranscribeAndFormat(ctx context.Context, req netclient.TranscribeRequest) (contract.Envelope, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	return b.transcribe(ctx, req)
}

func (b *fakeBackend) Format(ctx context.Context, req contract.FormatRequest) (contract.Envelope, error) {
	return b.format(ctx, req)
}

func (b *fakeBackend) Cancel(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancels = append(b.cancels, id)
	return true
}

func (b *fakeBackend) cancelled(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.cancels {
		if c == id {
			return true
		}
	}
	return false
}

type fakeLocal struct {
	text string
	err  error
}

func (f *fakeLocal) Name() string                     { return "fake-local" }
func (f *fakeLocal) IsAvailable(context.Context) bool { return true }
func (f *fakeLocal) Transcribe(context.Context, transcription.Request) (*transcription.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &transcription.Result{Text: f.text}, nil
}

func blockUntilCancel(ctx context.Context, _ netclient.TranscribeRequest) (contract.Envelope, error) {
	<-ctx.Done()
	return contract.Envelope{}, &netclient.Error{Kind: netclient.KindCancelled, Message: "cancelled", Err: ctx.Err()}
}

func replyText(text string) func(context.Context, netclient.TranscribeRequest) (contract.Envelope, error) {
	return func(context.Context, netclient.TranscribeRequest) (contract.Envelope, error) {
		return contract.Envelope{FormattedText: text}, nil
	}
}

type harness struct {
	m        *Machine
	src      *fakeSource
	backend  *fakeBackend
	events   chan Event
	inserted chan string
}

func newHarness(t *testing.T, cfg Config, backend *fakeBackend, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		src:      &fakeSource{},
		backend:  backend,
		events:   make(chan Event, 64),
		inserted: make(chan string, 8),
	}
	opts = append(opts, WithAnnouncer(AnnouncerFunc(func(e Event) { h.events <- e })))
	m, err := New(cfg, h.src, backend, InserterFunc(func(s string) { h.inserted <- s }), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Close)
	h.m = m
	return h
}

func (h *harness) expect(t *testing.T, kind EventKind, state State) Event {
	t.Helper()
	select {
	case e := <-h.events:
		if e.Kind != kind || e.State != state {
			t.Fatalf("event = %s/%s, want %s/%s", e.Kind, e.State, kind, state)
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s event", kind)
	}
	return Event{}
}

func (h *harness) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case e := <-h.events:
		t.Fatalf("unexpected event %s/%s", e.Kind, e.State)
	case s := <-h.inserted:
		t.Fatalf("unexpected insert %q", s)
	case <-time.After(d):
	}
}

// record runs Start and Stop and returns the session id once Processing.
func (h *harness) record(t *testing.T) string {
	t.Helper()
	id, err := h.m.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.expect(t, EventRecording, Recording)
	if err := h.m.Stop(context.Background(), id); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	h.expect(t, EventProcessing, Processing)
	return id
}

func TestHappyPathInsertsFormattedText(t *testing.T) {
	h := newHarness(t, Config{Template: "email", Mode: "Email"}, &fakeBackend{transcribe: replyText("Hello there.")},
		WithIDGenerator(func() string { return "req-1" }))

	if !h.m.CanStartRecording() || h.m.CanStopRecording() || h.m.CanCancelProcessing() {
		t.Fatal("guards wrong in idle")
	}
	id := h.record(t)
	if id != "req-1" {
		t.Fatalf("id = %q", id)
	}

	e := h.expect(t, EventCompleted, Idle)
	if e.Text != "Hello there." || e.Degraded {
		t.Fatalf("completion = %+v", e)
	}
	if got := <-h.inserted; got != "Hello there." {
		t.Fatalf("inserted %q", got)
	}
	if !h.src.last().Released() {
		t.Fatal("artifact not released")
	}

	req := h.backend.requests[0]
	if req.RequestID != "req-1" || !req.EnableFormatting || req.Language != "auto" || req.Template != "email" || req.Mode != "Email" {
		t.Fatalf("request = %+v", req)
	}
}

func TestGuardsTrackState(t *testing.T) {
	h := newHarness(t, Config{}, &fakeBackend{transcribe: blockUntilCancel})

	id, err := h.m.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	h.expect(t, EventRecording, Recording)
	if h.m.CanStartRecording() || !h.m.CanStopRecording() || h.m.CanCancelProcessing() {
		t.Fatal("guards wrong in recording")
	}
	if _, err := h.m.Start(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second Start err = %v", err)
	}
	if err := h.m.CancelProcessing(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("CancelProcessing while recording err = %v", err)
	}

	if err := h.m.Stop(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	h.expect(t, EventProcessing, Processing)
	if h.m.CanStartRecording() || h.m.CanStopRecording() || !h.m.CanCancelProcessing() {
		t.Fatal("guards wrong in processing")
	}
}

func TestStopWithForeignIDIsIgnored(t *testing.T) {
	h := newHarness(t, Config{}, &fakeBackend{transcribe: blockUntilCancel})

	if _, err := h.m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.expect(t, EventRecording, Recording)

	if err := h.m.Stop(context.Background(), "someone-else"); !errors.Is(err, ErrRequestMismatch) {
		t.Fatalf("err = %v", err)
	}
	if s := h.m.State(); s != Recording {
		t.Fatalf("state = %s", s)
	}
	h.quiet(t, 20*time.Millisecond)
}

func TestCompleteOutsideProcessingIsNoop(t *testing.T) {
	h := newHarness(t, Config{}, &fakeBackend{transcribe: blockUntilCancel})

	h.m.Complete("nothing", "text")
	if s := h.m.State(); s != Idle {
		t.Fatalf("state = %s", s)
	}
	h.quiet(t, 20*time.Millisecond)
}

func TestCompleteDeliversTextAndDropsPipelineResult(t *testing.T) {
	h := newHarness(t, Config{}, &fakeBackend{transcribe: blockUntilCancel})
	id := h.record(t)

	h.m.Complete("wrong", "ignored")
	h.m.Complete(id, "typed")
	h.expect(t, EventCompleted, Idle)
	if got := <-h.inserted; got != "typed" {
		t.Fatalf("inserted %q", got)
	}
	if !h.backend.cancelled(id) {
		t.Fatal("in-flight call not cancelled")
	}
	h.quiet(t, 30*time.Millisecond)
}

func TestProcessingTimeoutSettlesToIdle(t *testing.T) {
	h := newHarness(t, Config{CloudTimeout: 40 * time.Millisecond, SettleDelay: 20 * time.Millisecond},
		&fakeBackend{transcribe: blockUntilCancel})
	id := h.record(t)

	h.expect(t, EventTimedOut, Cancelling)
	h.expect(t, EventIdle, Idle)

	if !h.backend.cancelled(id) {
		t.Fatal("backend call not cancelled")
	}
	if !h.src.last().Released() {
		t.Fatal("artifact not released")
	}
	if !h.m.CanStartRecording() {
		t.Fatal("cannot start after timeout")
	}
	h.quiet(t, 30*time.Millisecond)
}

func TestCancelProcessingSuppressesLateResult(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, Config{SettleDelay: 10 * time.Millisecond}, &fakeBackend{
		transcribe: func(context.Context, netclient.TranscribeRequest) (contract.Envelope, error) {
			<-release
			return contract.Envelope{FormattedText: "too late"}, nil
		},
	})
	h.record(t)

	if err := h.m.CancelProcessing(); err != nil {
		t.Fatal(err)
	}
	h.expect(t, EventCancelling, Cancelling)
	h.expect(t, EventIdle, Idle)

	close(release)
	h.quiet(t, 30*time.Millisecond)
}

func TestStaleSettleDoesNotTouchNewSession(t *testing.T) {
	h := newHarness(t, Config{SettleDelay: 60 * time.Millisecond}, &fakeBackend{transcribe: blockUntilCancel})
	h.record(t)

	if err := h.m.CancelProcessing(); err != nil {
		t.Fatal(err)
	}
	h.expect(t, EventCancelling, Cancelling)

	h.m.CancelRecording()
	h.expect(t, EventDiscarded, Idle)
	if _, err := h.m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.expect(t, EventRecording, Recording)

	h.quiet(t, 100*time.Millisecond)
	if s := h.m.State(); s != Recording {
		t.Fatalf("state = %s", s)
	}
}

func TestCancelRecordingAbortsCapture(t *testing.T) {
	h := newHarness(t, Config{}, &fakeBackend{transcribe: blockUntilCancel})

	id, err := h.m.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	h.expect(t, EventRecording, Recording)

	h.m.CancelRecording()
	e := h.expect(t, EventDiscarded, Idle)
	if e.RequestID != id {
		t.Fatalf("discarded id = %q", e.RequestID)
	}
	if h.src.aborts != 1 {
		t.Fatalf("aborts = %d", h.src.aborts)
	}

	// Legal from Idle too.
	h.m.CancelRecording()
	h.expect(t, EventDiscarded, Idle)
}

func TestCloudOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		transcribe func(context.Context, netclient.TranscribeRequest) (contract.Envelope, error)
		local      transcription.Provider
		wantKind   EventKind
		wantText   string
		degraded   bool
		wantErr    netclient.Kind
	}{
		{
			name: "service unavailable falls back to local",
			transcribe: func(context.Context, netclient.TranscribeRequest) (contract.Envelope, error) {
				return contract.Envelope{}, &netclient.Error{Kind: netclient.KindServiceUnavailable, Message: "down"}
			},
			local:    &fakeLocal{text: " hello world "},
			wantKind: EventCompleted,
			wantText: "Hello world.",
		},
		{
			name: "service unavailable without local fails",
			transcribe: func(context.Context, netclient.TranscribeRequest) (contract.Envelope, error) {
				return contract.Envelope{}, &netclient.Error{Kind: netclient.KindServiceUnavailable, Message: "down"}
			},
			wantKind: EventFailed,
			wantErr:  netclient.KindServiceUnavailable,
		},
		{
			name: "formatting failure retries raw",
			transcribe: func(_ context.Context, req netclient.TranscribeRequest) (contract.Envelope, error) {
				if req.EnableFormatting {
					return contract.Envelope{}, &netclient.Error{Kind: netclient.KindFormattingFailed, Message: "llm"}
				}
				if req.RequestID != "s1:raw" {
					return contract.Envelope{}, &netclient.Error{Kind: netclient.KindValidation, Message: "bad id " + req.RequestID}
				}
				return contract.Envelope{FormattedText: "hello world"}, nil
			},
			wantKind: EventCompleted,
			wantText: "hello world",
			degraded: true,
		},
		{
			name: "no speech",
			transcribe: func(context.Context, netclient.TranscribeRequest) (contract.Envelope, error) {
				return contract.Envelope{}, &netclient.Error{Kind: netclient.KindNoSpeech, Message: "silence"}
			},
			wantKind: EventNoSpeech,
			wantErr:  netclient.KindNoSpeech,
		},
		{
			name: "authentication",
			transcribe: func(context.Context, netclient.TranscribeRequest) (contract.Envelope, error) {
				return contract.Envelope{}, &netclient.Error{Kind: netclient.KindAuthentication, Status: 401, Message: "bad key"}
			},
			wantKind: EventFailed,
			wantErr:  netclient.KindAuthentication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{
				transcribe: tt.transcribe,
				format: func(_ context.Context, req contract.FormatRequest) (contract.Envelope, error) {
					if req.Transcript != "hello world" {
						t.Errorf("format transcript = %q", req.Transcript)
					}
					return contract.Envelope{FormattedText: "Hello world."}, nil
				},
			}
			opts := []Option{WithIDGenerator(func() string { return "s1" })}
			if tt.local != nil {
				opts = append(opts, WithLocalProvider(tt.local))
			}
			h := newHarness(t, Config{}, backend, opts...)
			h.record(t)

			e := h.expect(t, tt.wantKind, Idle)
			if tt.wantKind == EventCompleted {
				if e.Text != tt.wantText || e.Degraded != tt.degraded {
					t.Fatalf("completion = %+v", e)
				}
				if got := <-h.inserted; got != tt.wantText {
					t.Fatalf("inserted %q", got)
				}
			} else if k := netclient.KindOf(e.Err); k != tt.wantErr {
				t.Fatalf("error kind = %s (%v)", k, e.Err)
			}
			if !h.src.last().Released() {
				t.Fatal("artifact not released")
			}
		})
	}
}

func TestOnDeviceVariant(t *testing.T) {
	tests := []struct {
		name     string
		local    *fakeLocal
		format   error
		noFormat bool
		wantKind EventKind
		wantText string
		degraded bool
	}{
		{name: "formatted", local: &fakeLocal{text: "hello world"}, wantKind: EventCompleted, wantText: "Hello world."},
		{
			name:     "format failure inserts raw",
			local:    &fakeLocal{text: "hello world"},
			format:   &netclient.Error{Kind: netclient.KindFormattingFailed, Message: "llm"},
			wantKind: EventCompleted,
			wantText: "hello world",
			degraded: true,
		},
		{name: "formatting disabled", local: &fakeLocal{text: "hello world"}, noFormat: true, wantKind: EventCompleted, wantText: "hello world"},
		{name: "silence", local: &fakeLocal{text: "  "}, wantKind: EventNoSpeech},
		{name: "recognizer error", local: &fakeLocal{err: errors.New("engine crashed")}, wantKind: EventFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{
				transcribe: func(context.Context, netclient.TranscribeRequest) (contract.Envelope, error) {
					t.Error("cloud upload on the on-device path")
					return contract.Envelope{}, nil
				},
				format: func(context.Context, contract.FormatRequest) (contract.Envelope, error) {
					if tt.format != nil {
						return contract.Envelope{}, tt.format
					}
					return contract.Envelope{FormattedText: "Hello world."}, nil
				},
			}
			h := newHarness(t, Config{Variant: "on_device", DisableFormatting: tt.noFormat}, backend, WithLocalProvider(tt.local))
			h.record(t)

			e := h.expect(t, tt.wantKind, Idle)
			if tt.wantKind == EventCompleted {
				if e.Text != tt.wantText || e.Degraded != tt.degraded {
					t.Fatalf("completion = %+v", e)
				}
				<-h.inserted
			}
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	b := &fakeBackend{}
	if _, err := New(Config{Variant: "telepathy"}, &fakeSource{}, b, InserterFunc(func(string) {})); err == nil {
		t.Fatal("unknown variant accepted")
	}
	_, err := New(Config{Variant: "on_device"}, &fakeSource{}, b, InserterFunc(func(string) {}))
	if !errors.Is(err, transcription.ErrProviderUnavailable) {
		t.Fatalf("on-device without recognizer err = %v", err)
	}
}

func TestClosedMachine(t *testing.T) {
	m, err := New(Config{}, &fakeSource{}, &fakeBackend{}, InserterFunc(func(string) {}))
	if err != nil {
		t.Fatal(err)
	}
	m.Close()
	m.Close()
	if _, err := m.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Start after Close err = %v", err)
	}
}

func TestAnnouncerMayCallBackIntoMachine(t *testing.T) {
	seen := make(chan string, 16)
	var m *Machine
	announcer := AnnouncerFunc(func(e Event) {
		// a UI refreshing its buttons on every announcement
		seen <- e.Kind.String()
		_ = m.CanStopRecording()
		if e.Kind == EventCompleted {
			m.CancelRecording()
		}
	})
	inserted := make(chan string, 1)
	m, err := New(Config{}, &fakeSource{}, &fakeBackend{transcribe: replyText("done")},
		InserterFunc(func(s string) {
			_ = m.State()
			inserted <- s
		}), WithAnnouncer(announcer))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Close)

	started := make(chan error, 1)
	go func() {
		id, err := m.Start(context.Background())
		if err == nil {
			err = m.Stop(context.Background(), id)
		}
		started <- err
	}()
	select {
	case err := <-started:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start/Stop blocked behind the announcer")
	}

	want := []string{"recording", "processing", "completed", "discarded"}
	for _, k := range want {
		select {
		case got := <-seen:
			if got != k {
				t.Fatalf("announced %s, want %s", got, k)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no %s announcement", k)
		}
	}
	if got := <-inserted; got != "done" {
		t.Fatalf("inserted %q", got)
	}
}
