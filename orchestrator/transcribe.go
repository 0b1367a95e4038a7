package orchestrator

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/formatting"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/resilience"
	"github.com/kbukum/voxboard/transcription"
	"github.com/kbukum/voxboard/validation"
)

// TranscribeInput is an audio request. The Service takes ownership of Audio
// and releases it before TranscribeAndFormat returns.
type TranscribeInput struct {
	Audio     *audio.Artifact
	RequestID string
	// Language is a BCP-47 tag, "auto" or empty.
	Language         string
	EnableFormatting bool
	Template         string
	Mode             string
}

// TranscribeAndFormat transcribes the artifact and, unless formatting is
// disabled, polishes the transcript. The artifact is deleted on every exit
// path.
func (s *Service) TranscribeAndFormat(ctx context.Context, in TranscribeInput) (env contract.Envelope, err error) {
	defer s.release(in.Audio, in.RequestID)

	ctx, span, start := s.begin(ctx, opTranscribe, in.RequestID)
	defer func() { err = s.finish(ctx, opTranscribe, in.RequestID, span, start, err) }()

	if in.Audio == nil {
		return contract.Envelope{}, errors.MissingField(contract.FieldAudio)
	}
	if verr := validation.New().
		Required(contract.FieldRequestID, in.RequestID).
		MaxRunes(contract.FieldRequestID, in.RequestID, maxRequestIDChars).
		MaxBytes(contract.FieldAudio, in.Audio.Size, s.cfg.Limits.MaxAudioBytes).
		MaxRunes(contract.FieldPromptTemplate, in.Template, s.cfg.Limits.MaxTemplateChars).
		MaxRunes(contract.FieldModeTitle, in.Mode, s.cfg.Limits.MaxModeChars).
		MaxRunes(contract.FieldLanguage, in.Language, maxLanguageChars).
		Validate(); verr != nil {
		return contract.Envelope{}, verr
	}
	if in.Audio.Size == 0 {
		// A zero-length capture is a recording nobody spoke into.
		return contract.Envelope{}, errors.NoSpeechDetected()
	}
	if ierr := in.Audio.Inspect(ctx); ierr != nil {
		if stderrors.Is(ierr, audio.ErrUnsupportedEncoding) {
			return contract.Envelope{}, errors.UnsupportedMedia("expected " + audio.Canonical.String()).WithCause(ierr)
		}
		return contract.Envelope{}, ierr
	}
	if in.Audio.Duration == 0 {
		// header only: capture stopped before any frame arrived
		return contract.Envelope{}, errors.NoSpeechDetected()
	}

	return s.idempotent(ctx, opTranscribe, "transcribe:"+in.RequestID, func(ctx context.Context) (contract.Envelope, error) {
		raw, err := s.transcribe(ctx, in)
		if err != nil {
			return contract.Envelope{}, err
		}

		out := contract.Envelope{
			FormattedText:    raw,
			RequestID:        in.RequestID,
			ModeTitle:        in.Mode,
			RawTranscription: raw,
		}
		if in.EnableFormatting {
			res, err := s.format(ctx, formatting.Request{Transcript: raw, Template: in.Template, Mode: in.Mode})
			if err != nil {
				return contract.Envelope{}, err
			}
			out.FormattedText = res.Text
			out.Usage = toUsage(res.Usage)
		}
		out.ProcessingTimeMs = s.elapsedMs(start)
		return out, nil
	})
}

const maxLanguageChars = 35

// transcribe checks availability and runs one transcription inside the
// bulkhead. Transcription is not retried here; the client retries at the
// transport layer.
func (s *Service) transcribe(ctx context.Context, in TranscribeInput) (string, error) {
	if s.transcriber == nil || !s.transcriber.IsAvailable(ctx) {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.log.Warn("transcription provider unavailable", logger.Fields(logger.FieldRequestID, in.RequestID))
		return "", errors.ServiceUnavailable("transcription service")
	}

	res, err := resilience.ExecuteWithResult(ctx, s.bulkhead, func() (*transcription.Result, error) {
		t0 := s.now()
		res, err := s.transcriber.Transcribe(ctx, transcription.Request{Audio: in.Audio, Language: in.Language})
		s.recordProvider(ctx, "transcription", s.transcriber.Name(), err, s.now().Sub(t0))
		return res, err
	})
	if err != nil {
		return "", s.transcriptionError(ctx, in.RequestID, err)
	}
	if res.NoSpeech() {
		s.log.Info("no speech detected", logger.Fields(logger.FieldRequestID, in.RequestID, "duration", in.Audio.Duration.String()))
		return "", errors.NoSpeechDetected()
	}
	return res.Text, nil
}

func (s *Service) transcriptionError(ctx context.Context, requestID string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	fields := logger.Fields(logger.FieldRequestID, requestID, logger.FieldProvider, s.transcriber.Name(), logger.FieldError, err.Error())
	var failed *transcription.FailedError
	switch {
	case stderrors.Is(err, resilience.ErrBulkheadFull), stderrors.Is(err, resilience.ErrBulkheadTimeout):
		s.log.Warn("transcription capacity exhausted", fields)
		return errors.ServiceUnavailable("transcription service").WithCause(err)
	case stderrors.Is(err, transcription.ErrProviderUnavailable):
		s.log.Error("transcription provider unreachable", fields)
		return errors.ServiceUnavailable("transcription service").WithCause(err)
	case stderrors.As(err, &failed):
		s.log.Error("transcription failed", fields)
		return errors.TranscriptionFailed(failed.Reason, err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout("transcription").WithCause(err)
	default:
		s.log.Error("transcription failed", fields)
		return errors.TranscriptionFailed("provider error", err)
	}
}

// release deletes the artifact. It runs on every exit path, panics included.
func (s *Service) release(a *audio.Artifact, requestID string) {
	if a == nil {
		return
	}
	if err := a.Release(context.Background()); err != nil {
		s.log.Warn("failed to delete audio artifact", logger.Fields(
			logger.FieldRequestID, requestID, "artifact", a.Name, logger.FieldError, err.Error()))
		return
	}
	s.log.Debug("audio artifact released", logger.Fields(logger.FieldRequestID, requestID, "artifact", a.Name))
}
