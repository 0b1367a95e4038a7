package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/orchestrator"
	"github.com/kbukum/voxboard/server/middleware"
	"github.com/kbukum/voxboard/validation"
)

// uploadPrefix is where staged audio lives in temp storage.
const uploadPrefix = "uploads/"

// maxFieldBytes bounds any single text part. Templates are the largest.
const maxFieldBytes = 64 << 10

// transcribeForm holds the text parts of a transcribe request.
type transcribeForm struct {
	RequestID        string `form:"requestId" validate:"notblank,max=128"`
	EnableFormatting string `form:"enableFormatting"`
	PromptTemplate   string `form:"promptTemplate"`
	ModeTitle        string `form:"modeTitle"`
	Language         string `form:"language" validate:"omitempty,max=35"`
}

// readTranscribe streams the multipart body. The audio part goes straight
// into temp storage; text parts are read into memory. On error the returned
// input may still carry an artifact the caller must release.
func (h *Handler) readTranscribe(c *gin.Context) (orchestrator.TranscribeInput, error) {
	var in orchestrator.TranscribeInput
	ctx := c.Request.Context()

	mr, err := c.Request.MultipartReader()
	if err != nil {
		if stderrors.Is(err, http.ErrNotMultipart) {
			return in, errors.Validation("expected multipart/form-data")
		}
		return in, errors.Validation("malformed multipart body").WithCause(err)
	}

	var form transcribeForm
	for {
		part, err := mr.NextPart()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return in, partError(err)
		}

		name := part.FormName()
		if name == contract.FieldAudio {
			if in.Audio != nil {
				part.Close()
				return in, errors.InvalidInput(contract.FieldAudio, "only one audio part is allowed")
			}
			in.Audio, err = h.stage(ctx, part)
			part.Close()
			if err != nil {
				return in, err
			}
			continue
		}

		value, err := readField(part)
		part.Close()
		if err != nil {
			return in, err
		}
		switch name {
		case contract.FieldRequestID:
			form.RequestID = value
		case contract.FieldEnableFormatting:
			form.EnableFormatting = value
		case contract.FieldPromptTemplate:
			form.PromptTemplate = value
		case contract.FieldModeTitle:
			form.ModeTitle = value
		case contract.FieldLanguage:
			form.Language = value
		}
	}

	if in.Audio == nil {
		return in, errors.MissingField(contract.FieldAudio)
	}
	if err := validation.ValidateStruct(form); err != nil {
		return in, err
	}
	enable, err := parseEnable(form.EnableFormatting)
	if err != nil {
		return in, err
	}

	in.RequestID = strings.TrimSpace(form.RequestID)
	in.EnableFormatting = enable
	in.Template = form.PromptTemplate
	in.Mode = form.ModeTitle
	in.Language = strings.TrimSpace(form.Language)
	return in, nil
}

// stage copies the audio part into storage. One byte past the limit is
// kept so the orchestrator sees the upload as oversized.
func (h *Handler) stage(ctx context.Context, part *multipart.Part) (*audio.Artifact, error) {
	key := uploadPrefix + uuid.NewString() + ".wav"
	n, err := h.uploads.Upload(ctx, key, io.LimitReader(part, h.maxAudioBytes+1))
	if err != nil {
		_ = h.uploads.Delete(context.WithoutCancel(ctx), key)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if middleware.IsBodyTooLarge(err) {
			return nil, errors.InvalidInput(contract.FieldAudio, "upload too large")
		}
		return nil, errors.Internal(fmt.Errorf("stage upload: %w", err))
	}
	// Drain what the limit cut off so the next part is reachable.
	if _, err := io.Copy(io.Discard, part); err != nil && middleware.IsBodyTooLarge(err) {
		_ = h.uploads.Delete(context.WithoutCancel(ctx), key)
		return nil, errors.InvalidInput(contract.FieldAudio, "upload too large")
	}

	mime := part.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = audio.MIMEWAV
	}
	return audio.NewStoredArtifact(h.uploads, key, mime, n), nil
}

func readField(part *multipart.Part) (string, error) {
	b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
	if err != nil {
		return "", partError(err)
	}
	if len(b) > maxFieldBytes {
		return "", errors.InvalidInput(part.FormName(), "field too large")
	}
	return string(b), nil
}

func partError(err error) error {
	if middleware.IsBodyTooLarge(err) {
		return errors.Validation("request body too large")
	}
	return errors.Validation("malformed multipart body").WithCause(err)
}

// parseEnable reads enableFormatting; absent means on.
func parseEnable(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.InvalidInput(contract.FieldEnableFormatting, "must be true or false")
	}
	return v, nil
}
