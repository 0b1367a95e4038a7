package recorder

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/netclient"
	"github.com/kbukum/voxboard/transcription"
)

// rawRequestID names the unformatted retry of a session so it never
// collides with the cached formatted attempt.
func rawRequestID(id string) string { return id + ":raw" }

// process runs off the actor. It returns the text to insert and whether
// formatting was skipped after a failure. It never touches machine state.
func (m *Machine) process(ctx context.Context, id string, artifact *audio.Artifact) (string, bool, error) {
	if m.variant == transcription.OnDevice {
		return m.processLocal(ctx, id, artifact)
	}
	return m.processCloud(ctx, id, artifact)
}

func (m *Machine) processCloud(ctx context.Context, id string, artifact *audio.Artifact) (string, bool, error) {
	format := !m.cfg.DisableFormatting
	req := netclient.TranscribeRequest{
		RequestID:        id,
		Audio:            artifact,
		Language:         m.cfg.Language,
		EnableFormatting: format,
		Template:         m.cfg.Template,
		Mode:             m.cfg.Mode,
	}
	env, err := m.backend.TranscribeAndFormat(ctx, req)
	switch {
	case err == nil:
		return env.FormattedText, false, nil

	case netclient.IsKind(err, netclient.KindServiceUnavailable) && m.local != nil:
		m.log.Warn("backend unavailable, recognizing locally", logger.Fields(logger.FieldRequestID, id, logger.FieldError, err.Error()))
		return m.processLocal(ctx, id, artifact)

	case netclient.IsKind(err, netclient.KindFormattingFailed) && format:
		m.log.Warn("formatting failed, retrying raw", logger.Fields(logger.FieldRequestID, id))
		req.RequestID = rawRequestID(id)
		req.EnableFormatting = false
		env, err = m.backend.TranscribeAndFormat(ctx, req)
		if err != nil {
			return "", false, err
		}
		return env.FormattedText, true, nil

	default:
		return "", false, err
	}
}

func (m *Machine) processLocal(ctx context.Context, id string, artifact *audio.Artifact) (string, bool, error) {
	res, err := m.local.Transcribe(ctx, transcription.Request{Audio: artifact, Language: m.cfg.Language})
	if err != nil {
		return "", false, localError(ctx, err)
	}
	if res.NoSpeech() {
		return "", false, &netclient.Error{Kind: netclient.KindNoSpeech, Message: "no speech detected"}
	}
	raw := strings.TrimSpace(res.Text)
	if m.cfg.DisableFormatting {
		return raw, false, nil
	}

	env, err := m.backend.Format(ctx, contract.FormatRequest{
		Transcript:     raw,
		RequestID:      id,
		PromptTemplate: m.cfg.Template,
		ModeTitle:      m.cfg.Mode,
	})
	if err != nil {
		if ctx.Err() != nil || netclient.IsKind(err, netclient.KindCancelled) {
			return "", false, err
		}
		m.log.Warn("formatting failed, inserting raw transcript", logger.Fields(
			logger.FieldRequestID, id, logger.FieldError, err.Error()))
		return raw, true, nil
	}
	return env.FormattedText, false, nil
}

// localError maps a recognizer failure onto the client error kinds so the
// machine reports both paths the same way.
func localError(ctx context.Context, err error) error {
	kind := netclient.KindTranscriptionFailed
	switch {
	case ctx.Err() != nil:
		kind = netclient.KindCancelled
	case stderrors.Is(err, transcription.ErrProviderUnavailable):
		kind = netclient.KindServiceUnavailable
	}
	return &netclient.Error{Kind: kind, Message: err.Error(), Err: err}
}
