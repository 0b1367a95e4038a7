package orchestrator

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/formatting"
	"github.com/kbukum/voxboard/idempotency"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/observability"
	"github.com/kbukum/voxboard/resilience"
	"github.com/kbukum/voxboard/transcription"
)

const (
	opFormat     = "format"
	opTranscribe = "transcribe"
)

// Service runs the backend pipeline: validate, consult the response cache,
// transcribe, format, assemble. It is safe for concurrent use.
type Service struct {
	cfg         Config
	transcriber transcription.Provider
	formatter   formatting.Provider
	cache       idempotency.Cache[contract.Envelope]
	inflight    idempotency.Group[contract.Envelope]
	bulkhead    *resilience.Bulkhead
	metrics     *observability.Metrics
	log         *logger.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now for processing-time accounting.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New wires a Service. transcriber may be nil for a format-only deployment.
func New(cfg Config, transcriber transcription.Provider, formatter formatting.Provider, cache idempotency.Cache[contract.Envelope], opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if formatter == nil {
		return nil, stderrors.New("orchestrator: formatting provider is required")
	}
	if cache == nil {
		return nil, stderrors.New("orchestrator: cache is required")
	}
	s := &Service{
		cfg:         cfg,
		transcriber: transcriber,
		formatter:   formatter,
		cache:       cache,
		log:         logger.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("orchestrator")

	bh := cfg.Transcriptions
	bh.OnReject = func(string) {
		s.log.Warn("transcription bulkhead rejected request", logger.Fields("max_concurrent", bh.MaxConcurrent))
	}
	s.bulkhead = resilience.NewBulkhead(bh)
	return s, nil
}

// Limits returns the effective input bounds.
func (s *Service) Limits() Limits { return s.cfg.Limits }

// begin opens the span and in-flight metric for an operation.
func (s *Service) begin(ctx context.Context, op, requestID string) (context.Context, trace.Span, time.Time) {
	ctx, span := observability.StartSpan(ctx, "orchestrator."+op,
		trace.WithAttributes(
			attribute.String(observability.AttrOperation, op),
			attribute.String(observability.AttrRequestID, requestID),
		))
	if s.metrics != nil {
		s.metrics.OperationStarted(ctx, op)
	}
	return ctx, span, s.now()
}

// finish normalizes err into the caller-facing taxonomy, then records it.
func (s *Service) finish(ctx context.Context, op, requestID string, span trace.Span, start time.Time, err error) error {
	err = s.normalize(op, requestID, err)
	outcome := observability.OutcomeOK
	if err != nil {
		outcome = "CANCELED"
		if appErr, ok := errors.AsAppError(err); ok {
			outcome = string(appErr.Code)
		}
		span.SetAttributes(attribute.String(observability.AttrErrorCode, outcome))
	}
	if s.metrics != nil {
		s.metrics.OperationFinished(ctx, op, outcome, s.now().Sub(start))
	}
	observability.EndSpan(span, err)
	return err
}

// normalize maps context and unclassified errors. Caller cancellation stays
// a bare context error: there is nobody left to answer.
func (s *Service) normalize(op, requestID string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		s.log.Debug("request canceled by caller", logger.Fields(logger.FieldOperation, op, logger.FieldRequestID, requestID))
		return err
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout(op).WithCause(err)
	default:
		s.log.Error("unexpected pipeline failure", logger.Fields(
			logger.FieldOperation, op, logger.FieldRequestID, requestID, logger.FieldError, err.Error()))
		return errors.Internal(err)
	}
}

// idempotent serves key from the cache, or computes it once across
// concurrent duplicates and caches it. The first stored envelope wins, so
// every caller for a key converges on the same reply. A duplicate that
// joined a run whose caller went away reruns compute on its own ctx.
func (s *Service) idempotent(ctx context.Context, op, key string, compute func(context.Context) (contract.Envelope, error)) (contract.Envelope, error) {
	if env, ok := s.lookup(ctx, op, key); ok {
		return env, nil
	}
	env, shared, err := s.inflight.Do(ctx, key, func() (contract.Envelope, error) {
		// A run for key may have finished between the lookup and Do.
		if env, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return env, nil
		}
		env, err := compute(ctx)
		if err != nil {
			return env, err
		}
		stored, won, cerr := s.cache.SetIfAbsent(ctx, key, env)
		if cerr != nil {
			s.log.Warn("response cache write failed", logger.Fields("key", key, logger.FieldError, cerr.Error()))
			return env, nil
		}
		if !won {
			s.log.Debug("response already cached by a concurrent request", logger.Fields("key", key))
		}
		return stored, nil
	})
	if shared {
		s.log.Debug("joined in-flight request", logger.Fields("key", key))
	}
	return env, err
}

// lookup treats cache errors as a miss.
func (s *Service) lookup(ctx context.Context, op, key string) (contract.Envelope, bool) {
	env, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("response cache read failed, treating as miss", logger.Fields("key", key, logger.FieldError, err.Error()))
		ok = false
	}
	if s.metrics != nil {
		s.metrics.CacheLookup(ctx, op, ok)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(observability.AttrCacheHit, ok))
	if ok {
		s.log.Debug("response cache hit", logger.Fields("key", key))
	}
	return env, ok
}

func (s *Service) elapsedMs(start time.Time) int64 {
	return s.now().Sub(start).Milliseconds()
}
