package openai

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/voxboard/provider"
	"github.com/kbukum/voxboard/resilience"
	"github.com/kbukum/voxboard/transcription"
)

// ProviderName is the registered name for the OpenAI transcription backend.
const ProviderName = "openai"

// Config configures the OpenAI speech-to-text backend.
type Config struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// Provider transcribes with the OpenAI audio API.
type Provider struct {
	cfg    Config
	client *goopenai.Client
	cb     *resilience.CircuitBreaker
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates the backend. A missing API key is allowed; the
// provider then reports itself unavailable.
func NewProvider(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = goopenai.Whisper1
	}
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	cbCfg := resilience.DefaultCircuitBreakerConfig(ProviderName + "-stt")
	cbCfg.IsFailure = func(err error) bool { return stderrors.Is(err, transcription.ErrProviderUnavailable) }
	return &Provider{
		cfg:    cfg,
		client: goopenai.NewClientWithConfig(oc),
		cb:     resilience.NewCircuitBreaker(cbCfg),
	}
}

// Factory builds a Provider from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(m map[string]any) (transcription.Provider, error) {
		return NewProvider(Config{
			APIKey:  provider.String(m, "api_key", ""),
			BaseURL: provider.String(m, "base_url", ""),
			Model:   provider.String(m, "model", ""),
		}), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks credentials by listing models.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if p.cfg.APIKey == "" || !p.cb.Ready() {
		return false
	}
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Transcribe sends the artifact to the audio transcription endpoint.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	if p.cfg.APIKey == "" {
		return nil, transcription.Unavailable(ProviderName, stderrors.New("api key not configured"))
	}
	data, err := req.Audio.Bytes(ctx)
	if err != nil {
		return nil, transcription.Failed(ProviderName, "read audio", err)
	}

	areq := goopenai.AudioRequest{
		Model:    p.cfg.Model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(data),
	}
	lang := transcription.ResolveLanguage(req.Language)
	if !lang.Auto {
		areq.Language = transcription.BaseLanguage(lang.Primary)
	}

	start := time.Now()
	var resp goopenai.AudioResponse
	err = p.cb.Execute(func() error {
		var callErr error
		resp, callErr = p.client.CreateTranscription(ctx, areq)
		return classify(callErr)
	})
	if err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			return nil, transcription.Unavailable(ProviderName, err)
		}
		return nil, err
	}

	return &transcription.Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: time.Duration(resp.Duration * float64(time.Second)),
		Metadata: map[string]any{
			"provider":   ProviderName,
			"model":      p.cfg.Model,
			"latency_ms": time.Since(start).Milliseconds(),
		},
	}, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case stderrors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case stderrors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == 0 || status >= 500 || status == http.StatusUnauthorized ||
		status == http.StatusForbidden || status == http.StatusTooManyRequests {
		return transcription.Unavailable(ProviderName, err)
	}
	return transcription.Failed(ProviderName, "request rejected", err)
}
