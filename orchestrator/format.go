package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/formatting"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/observability"
	"github.com/kbukum/voxboard/resilience"
	"github.com/kbukum/voxboard/validation"
)

// FormatInput is a text-only formatting request.
type FormatInput struct {
	Transcript string
	// RequestID enables the response cache when set.
	RequestID string
	Template  string
	Mode      string
}

// Format polishes a transcript. A repeated RequestID within the cache TTL
// returns the first reply without calling the model again.
func (s *Service) Format(ctx context.Context, in FormatInput) (env contract.Envelope, err error) {
	ctx, span, start := s.begin(ctx, opFormat, in.RequestID)
	defer func() { err = s.finish(ctx, opFormat, in.RequestID, span, start, err) }()

	if verr := validation.New().
		Required("transcript", in.Transcript).
		MaxRunes("transcript", in.Transcript, s.cfg.Limits.MaxTranscriptChars).
		MaxRunes("promptTemplate", in.Template, s.cfg.Limits.MaxTemplateChars).
		MaxRunes("modeTitle", in.Mode, s.cfg.Limits.MaxModeChars).
		MaxRunes("requestId", in.RequestID, maxRequestIDChars).
		Validate(); verr != nil {
		return contract.Envelope{}, verr
	}

	compute := func(ctx context.Context) (contract.Envelope, error) {
		res, err := s.format(ctx, formatting.Request{Transcript: in.Transcript, Template: in.Template, Mode: in.Mode})
		if err != nil {
			return contract.Envelope{}, err
		}
		return contract.Envelope{
			FormattedText:    res.Text,
			RequestID:        in.RequestID,
			ModeTitle:        in.Mode,
			Usage:            toUsage(res.Usage),
			ProcessingTimeMs: s.elapsedMs(start),
		}, nil
	}
	if in.RequestID == "" {
		return compute(ctx)
	}
	return s.idempotent(ctx, opFormat, "format:"+in.RequestID, compute)
}

const maxRequestIDChars = 128

// format calls the formatting provider with bounded exponential retry.
// Failures marked non-retryable (rejected credentials, bad requests) surface
// on the first attempt.
func (s *Service) format(ctx context.Context, req formatting.Request) (*formatting.Result, error) {
	cfg := s.cfg.FormatRetry
	cfg.RetryIf = func(err error) bool {
		if ctx.Err() != nil {
			return false
		}
		if appErr, ok := errors.AsAppError(err); ok {
			return appErr.Retryable
		}
		return resilience.DefaultRetryIf(err)
	}
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		s.log.Warn("formatting attempt failed, retrying", logger.Fields(
			logger.FieldAttempt, attempt, logger.FieldProvider, s.formatter.Name(),
			"backoff", backoff.String(), logger.FieldError, err.Error()))
		if s.metrics != nil {
			s.metrics.Retry(ctx, "formatting")
		}
	}

	res, err := resilience.Retry(ctx, cfg, func() (*formatting.Result, error) {
		t0 := s.now()
		res, err := s.formatter.Format(ctx, req)
		s.recordProvider(ctx, "formatting", s.formatter.Name(), err, s.now().Sub(t0))
		return res, err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.FormattingFailed(err)
	}
	if res == nil || strings.TrimSpace(res.Text) == "" {
		return nil, errors.FormattingFailed(nil)
	}
	return res, nil
}

func (s *Service) recordProvider(ctx context.Context, kind, name string, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := observability.OutcomeOK
	if err != nil {
		outcome = "error"
	}
	s.metrics.ProviderCall(ctx, kind, name, outcome, d)
}

func toUsage(u *formatting.Usage) *contract.Usage {
	if u == nil {
		return nil
	}
	return &contract.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
