package recorder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/netclient"
	"github.com/kbukum/voxboard/transcription"
)

// Backend is the slice of *netclient.Client a session uses.
type Backend interface {
	Format(ctx context.Context, req contract.FormatRequest) (contract.Envelope, error)
	TranscribeAndFormat(ctx context.Context, req netclient.TranscribeRequest) (contract.Envelope, error)
	Cancel(requestID string) bool
}

// Machine is the dictation session state machine.
type Machine struct {
	cfg       Config
	variant   transcription.Variant
	source    audio.Source
	backend   Backend
	local     transcription.Provider
	announcer Announcer
	inserter  Inserter
	log       *logger.Logger
	newID     func() string

	ops       chan func()
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	notify    *notifier
	// published mirrors state for the guards, which must not wait on the
	// actor: a UI refreshing from inside Announce would deadlock.
	published atomic.Int32

	// Owned by the actor goroutine.
	state      State
	generation uint64
	sess       *session
}

type session struct {
	id       string
	gen      uint64
	artifact *audio.Artifact
	cancel   context.CancelFunc
	timer    *time.Timer
}

// Option configures a Machine.
type Option func(*Machine)

// WithLocalProvider sets the on-device recognizer. It is required for the
// on-device variant and is the fallback when the cloud backend is down.
func WithLocalProvider(p transcription.Provider) Option {
	return func(m *Machine) { m.local = p }
}

// WithAnnouncer sets the transition listener.
func WithAnnouncer(a Announcer) Option {
	return func(m *Machine) { m.announcer = a }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// WithIDGenerator overrides request id allocation.
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) { m.newID = fn }
}

// New starts a Machine in Idle. Close releases its goroutine.
func New(cfg Config, source audio.Source, backend Backend, inserter Inserter, opts ...Option) (*Machine, error) {
	cfg.ApplyDefaults()
	variant, err := transcription.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	m := &Machine{
		cfg:       cfg,
		variant:   variant,
		source:    source,
		backend:   backend,
		inserter:  inserter,
		announcer: AnnouncerFunc(func(Event) {}),
		log:       logger.NewNop(),
		newID:     uuid.NewString,
		ops:       make(chan func()),
		quit:      make(chan struct{}),
		notify:    newNotifier(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if variant == transcription.OnDevice && m.local == nil {
		return nil, transcription.Unavailable("on-device recognizer", nil)
	}
	m.log = m.log.WithComponent("recorder").WithFields(logger.Fields(logger.FieldVariant, variant.String()))

	m.wg.Add(1)
	go m.loop()
	go m.notify.run(m.quit)
	return m, nil
}

func (m *Machine) loop() {
	defer m.wg.Done()
	for {
		select {
		case fn := <-m.ops:
			fn()
		case <-m.quit:
			return
		}
	}
}

// do runs fn on the actor and waits for it.
func (m *Machine) do(fn func()) error {
	done := make(chan struct{})
	select {
	case m.ops <- func() { fn(); close(done) }:
	case <-m.quit:
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-m.quit:
		return ErrClosed
	}
}

// post queues fn from a background goroutine without blocking it.
func (m *Machine) post(fn func()) {
	go func() {
		select {
		case m.ops <- fn:
		case <-m.quit:
		}
	}()
}

// Close discards any session and stops the actor. Announcements already
// queued are still delivered.
func (m *Machine) Close() {
	_ = m.do(func() {
		if m.state != Idle {
			m.discard("closed")
		}
	})
	m.closeOnce.Do(func() { close(m.quit) })
	m.wg.Wait()
}

// State returns the most recently entered state. It never blocks, so it is
// safe to call from an Announcer.
func (m *Machine) State() State { return State(m.published.Load()) }

// CanStartRecording reports state == Idle.
func (m *Machine) CanStartRecording() bool { return m.State() == Idle }

// CanStopRecording reports state == Recording.
func (m *Machine) CanStopRecording() bool { return m.State() == Recording }

// CanCancelProcessing reports state == Processing.
func (m *Machine) CanCancelProcessing() bool { return m.State() == Processing }

// Start allocates a request id and begins capture. Outside Idle it changes
// nothing and returns ErrInvalidState.
func (m *Machine) Start(ctx context.Context) (string, error) {
	var id string
	var err error
	if cerr := m.do(func() { id, err = m.start(ctx) }); cerr != nil {
		return "", cerr
	}
	return id, err
}

func (m *Machine) start(ctx context.Context) (string, error) {
	if m.state != Idle {
		m.illegal("start", "")
		return "", ErrInvalidState
	}
	id := m.newID()
	if err := m.source.Start(ctx, id); err != nil {
		m.log.Error("capture failed to start", logger.Fields(logger.FieldRequestID, id, logger.FieldError, err.Error()))
		m.announce(Event{Kind: EventFailed, State: m.state, RequestID: id, Err: err})
		return "", err
	}
	m.generation++
	m.sess = &session{id: id, gen: m.generation}
	m.transition(Recording, Event{Kind: EventRecording, RequestID: id})
	return id, nil
}

// Stop seals the capture of session requestID and sends it off. A stale
// or foreign id is logged and ignored.
func (m *Machine) Stop(ctx context.Context, requestID string) error {
	var err error
	if cerr := m.do(func() { err = m.stop(ctx, requestID) }); cerr != nil {
		return cerr
	}
	return err
}

func (m *Machine) stop(ctx context.Context, requestID string) error {
	if m.state != Recording {
		m.illegal("stop", requestID)
		return ErrInvalidState
	}
	if requestID != m.sess.id {
		m.log.Error("stop for a different session ignored", logger.Fields(
			logger.FieldRequestID, requestID, "current_request_id", m.sess.id))
		return ErrRequestMismatch
	}

	artifact, err := m.source.Stop(ctx)
	if err != nil {
		m.log.Error("capture failed to seal", logger.Fields(logger.FieldRequestID, requestID, logger.FieldError, err.Error()))
		m.sess = nil
		m.transition(Idle, Event{Kind: EventFailed, RequestID: requestID, Err: err})
		return err
	}

	s := m.sess
	s.artifact = artifact
	// The pipeline outlives the caller's ctx; only cancellation stops it.
	pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	budget := m.cfg.timeout(m.variant)
	s.timer = time.AfterFunc(budget, func() {
		m.post(func() { m.timedOut(s.id, s.gen) })
	})
	m.transition(Processing, Event{Kind: EventProcessing, RequestID: s.id})

	go func() {
		text, degraded, err := m.process(pctx, s.id, artifact)
		m.post(func() { m.finish(s.id, s.gen, text, degraded, err) })
	}()
	return nil
}

// Complete delivers text for the session in Processing. From any other
// state, or for another session, it is a logged no-op.
func (m *Machine) Complete(requestID, text string) {
	_ = m.do(func() { m.complete(requestID, text, false) })
}

func (m *Machine) complete(requestID, text string, degraded bool) {
	if m.state != Processing || m.sess == nil || m.sess.id != requestID {
		m.illegal("complete", requestID)
		return
	}
	m.teardown()
	m.notify.push(func() { m.inserter.Insert(text) })
	m.transition(Idle, Event{Kind: EventCompleted, RequestID: requestID, Text: text, Degraded: degraded})
}

// finish applies a pipeline result unless the session has moved on.
func (m *Machine) finish(id string, gen uint64, text string, degraded bool, err error) {
	if m.state != Processing || m.sess == nil || m.sess.gen != gen {
		m.log.Debug("late result dropped", logger.Fields(logger.FieldRequestID, id, logger.FieldState, m.state.String()))
		return
	}
	if err == nil {
		m.complete(id, text, degraded)
		return
	}

	m.teardown()
	kind := EventFailed
	if netclient.IsKind(err, netclient.KindNoSpeech) {
		kind = EventNoSpeech
	} else {
		m.log.Warn("session failed", logger.Fields(logger.FieldRequestID, id, logger.FieldError, err.Error()))
	}
	m.transition(Idle, Event{Kind: kind, RequestID: id, Err: err})
}

// CancelProcessing abandons the in-flight request. The machine passes
// through Cancelling and settles to Idle after the settle delay.
func (m *Machine) CancelProcessing() error {
	var err error
	if cerr := m.do(func() { err = m.cancelProcessing(EventCancelling) }); cerr != nil {
		return cerr
	}
	return err
}

func (m *Machine) cancelProcessing(kind EventKind) error {
	if m.state != Processing {
		m.illegal("cancel_processing", "")
		return ErrInvalidState
	}
	id, gen := m.sess.id, m.generation
	m.teardown()
	m.transition(Cancelling, Event{Kind: kind, RequestID: id})

	time.AfterFunc(m.cfg.SettleDelay, func() {
		m.post(func() { m.settle(gen) })
	})
	return nil
}

func (m *Machine) settle(gen uint64) {
	if m.state != Cancelling || m.generation != gen {
		return
	}
	m.transition(Idle, Event{Kind: EventIdle})
}

func (m *Machine) timedOut(id string, gen uint64) {
	if m.state != Processing || m.sess == nil || m.sess.gen != gen {
		return
	}
	m.log.Warn("processing timed out", logger.Fields(logger.FieldRequestID, id))
	_ = m.cancelProcessing(EventTimedOut)
}

// CancelRecording is legal in every state: it aborts capture, cancels any
// in-flight call and returns straight to Idle.
func (m *Machine) CancelRecording() {
	_ = m.do(func() { m.discard("cancelled") })
}

func (m *Machine) discard(reason string) {
	var id string
	if m.sess != nil {
		id = m.sess.id
	}
	if m.state == Recording {
		m.source.Abort()
	}
	m.teardown()
	// Invalidates a pending settle from an earlier cancel.
	m.generation++
	m.log.Info("session discarded", logger.Fields(logger.FieldRequestID, id, "reason", reason))
	m.transition(Idle, Event{Kind: EventDiscarded, RequestID: id})
}

// teardown stops the timer, cancels the pipeline and backend call and
// releases the artifact. It is safe on a nil or finished session.
func (m *Machine) teardown() {
	s := m.sess
	m.sess = nil
	if s == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		m.backend.Cancel(s.id)
		m.backend.Cancel(rawRequestID(s.id))
		s.cancel()
	}
	if s.artifact != nil {
		if err := s.artifact.Release(context.Background()); err != nil {
			m.log.Warn("recording not deleted", logger.Fields(logger.FieldRequestID, s.id, logger.FieldError, err.Error()))
		}
	}
}

func (m *Machine) transition(to State, ev Event) {
	from := m.state
	m.state = to
	m.published.Store(int32(to))
	ev.State = to
	m.log.Debug("state changed", logger.Fields(
		logger.FieldRequestID, ev.RequestID,
		"from", from.String(),
		logger.FieldState, to.String(),
		"event", ev.Kind.String(),
	))
	m.announce(ev)
}

// announce queues ev behind earlier announcements and inserts.
func (m *Machine) announce(ev Event) {
	m.notify.push(func() { m.announcer.Announce(ev) })
}

func (m *Machine) illegal(action, requestID string) {
	m.log.Warn("action ignored", logger.Fields(
		"action", action,
		logger.FieldState, m.state.String(),
		logger.FieldRequestID, requestID,
	))
}
