package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/orchestrator"
	"github.com/kbukum/voxboard/server"
	"github.com/kbukum/voxboard/storage"
	"github.com/kbukum/voxboard/validation"
)

// Orchestrator is the slice of *orchestrator.Service the handlers call.
type Orchestrator interface {
	Format(ctx context.Context, in orchestrator.FormatInput) (contract.Envelope, error)
	TranscribeAndFormat(ctx context.Context, in orchestrator.TranscribeInput) (contract.Envelope, error)
}

// Handler serves the format and transcribe routes.
type Handler struct {
	svc           Orchestrator
	uploads       storage.Storage
	maxAudioBytes int64
	log           *logger.Logger
}

// NewHandler wires handlers to svc. Uploads are staged in store; anything
// over maxAudioBytes is cut off while streaming.
func NewHandler(svc Orchestrator, store storage.Storage, maxAudioBytes int64, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{svc: svc, uploads: store, maxAudioBytes: maxAudioBytes, log: log.WithComponent("api")}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST(contract.PathFormat, h.Format)
	r.POST(contract.PathTranscribe, h.Transcribe)
}

// Format handles POST /api/v1/format.
func (h *Handler) Format(c *gin.Context) {
	var req contract.FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, bindError(err))
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	env, err := h.svc.Format(c.Request.Context(), orchestrator.FormatInput{
		Transcript: req.Transcript,
		RequestID:  req.RequestID,
		Template:   req.PromptTemplate,
		Mode:       req.ModeTitle,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, env)
}

// Transcribe handles POST /api/v1/transcribe.
func (h *Handler) Transcribe(c *gin.Context) {
	in, err := h.readTranscribe(c)
	if err != nil {
		if in.Audio != nil {
			if rerr := in.Audio.Release(context.WithoutCancel(c.Request.Context())); rerr != nil {
				h.log.WithContext(c.Request.Context()).Warn("discarding upload failed", logger.ErrorFields("release", rerr))
			}
		}
		server.RespondWithError(c, err)
		return
	}

	env, err := h.svc.TranscribeAndFormat(c.Request.Context(), in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, env)
}
