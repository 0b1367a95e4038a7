package netclient

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/voxboard/audio"
	"github.com/kbukum/voxboard/contract"
	"github.com/kbukum/voxboard/httpclient"
	"github.com/kbukum/voxboard/httpclient/rest"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/resilience"
)

// TranscribeRequest is one recorded session to upload.
type TranscribeRequest struct {
	RequestID        string
	Audio            *audio.Artifact
	Language         string
	EnableFormatting bool
	Template         string
	Mode             string
}

// Client calls the backend. It is safe for concurrent use.
type Client struct {
	rest *rest.Client
	cfg  Config
	log  *logger.Logger

	mu       sync.Mutex
	inflight map[string]*handle
}

type handle struct {
	cancel context.CancelFunc
}

// New builds a Client from cfg.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("netclient")

	retry := resilience.FixedRetryConfig(cfg.MaxAttempts, cfg.RetryBackoff)
	retry.RetryIf = httpclient.IsRetryable
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("retrying backend call", logger.Fields(
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"backoff_ms", backoff.Milliseconds(),
		))
	}

	rc, err := rest.New(httpclient.Config{
		Name:        "voxboard-backend",
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.ShortTimeout,
		DialTimeout: cfg.DialTimeout,
		Auth:        httpclient.APIKeyAuthHeader(cfg.APIKey, contract.HeaderAPIKey),
		Retry:       &retry,
		TLS:         &cfg.TLS,
	})
	if err != nil {
		return nil, fmt.Errorf("netclient: %w", err)
	}
	return &Client{rest: rc, cfg: cfg, log: log, inflight: make(map[string]*handle)}, nil
}

// Call posts payload to endpoint under class's timeout and decodes the
// envelope. A non-empty requestID makes the call cancellable through Cancel
// until it returns. Errors are always *Error.
func (c *Client) Call(ctx context.Context, endpoint string, payload any, requestID string, class Class) (contract.Envelope, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if requestID != "" {
		defer c.track(requestID, cancel)()
	}

	start := time.Now()
	resp, err := rest.Post[contract.Envelope](ctx, c.rest, endpoint, payload, rest.WithTimeout(c.cfg.timeout(class)))
	fields := logger.Fields(
		logger.FieldRequestID, requestID,
		logger.FieldOperation, endpoint,
		"class", class.String(),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)
	if err != nil {
		cerr := classify(ctx, err)
		fields["kind"] = cerr.Kind.String()
		fields[logger.FieldError] = cerr.Error()
		if cerr.Kind == KindCancelled {
			c.log.Info("backend call cancelled", fields)
		} else {
			c.log.Warn("backend call failed", fields)
		}
		return contract.Envelope{}, cerr
	}
	c.log.Debug("backend call completed", fields)
	return resp.Data, nil
}

// Cancel aborts the in-flight call registered under requestID and reports
// whether there was one. Calling it after the call returned is a no-op.
func (c *Client) Cancel(requestID string) bool {
	c.mu.Lock()
	h, ok := c.inflight[requestID]
	delete(c.inflight, requestID)
	c.mu.Unlock()
	if ok {
		h.cancel()
	}
	return ok
}

// Pending is the number of registered in-flight calls.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// track registers cancel under id and returns the deregistration. A newer
// call with the same id replaces and cancels the older one.
func (c *Client) track(id string, cancel context.CancelFunc) func() {
	h := &handle{cancel: cancel}
	c.mu.Lock()
	prev := c.inflight[id]
	c.inflight[id] = h
	c.mu.Unlock()
	if prev != nil {
		c.log.Warn("superseding in-flight call", logger.Fields(logger.FieldRequestID, id))
		prev.cancel()
	}
	return func() {
		c.mu.Lock()
		if c.inflight[id] == h {
			delete(c.inflight, id)
		}
		c.mu.Unlock()
	}
}

// Format asks the backend to polish a transcript.
func (c *Client) Format(ctx context.Context, req contract.FormatRequest) (contract.Envelope, error) {
	return c.Call(ctx, contract.PathFormat, req, req.RequestID, Short)
}

// TranscribeAndFormat uploads a recording. The artifact is read into memory
// so a retry can resend it; the caller still owns and releases it.
func (c *Client) TranscribeAndFormat(ctx context.Context, req TranscribeRequest) (contract.Envelope, error) {
	if req.Audio == nil {
		return contract.Envelope{}, &Error{Kind: KindValidation, Message: "no audio to upload"}
	}
	data, err := req.Audio.Bytes(ctx)
	if err != nil {
		return contract.Envelope{}, &Error{Kind: KindValidation, Message: "read recording", Err: err}
	}

	fields := map[string]string{
		contract.FieldRequestID:        req.RequestID,
		contract.FieldEnableFormatting: strconv.FormatBool(req.EnableFormatting),
	}
	for k, v := range map[string]string{
		contract.FieldLanguage:       req.Language,
		contract.FieldPromptTemplate: req.Template,
		contract.FieldModeTitle:      req.Mode,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	body := &httpclient.MultipartBody{
		Fields: fields,
		Files: []httpclient.FileField{{
			FieldName:   contract.FieldAudio,
			FileName:    req.Audio.Name,
			ContentType: req.Audio.MIME,
			Data:        data,
		}},
	}
	return c.Call(ctx, contract.PathTranscribe, body, req.RequestID, Long)
}
