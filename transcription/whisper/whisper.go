package whisper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/voxboard/httpclient"
	"github.com/kbukum/voxboard/httpclient/rest"
	"github.com/kbukum/voxboard/provider"
	"github.com/kbukum/voxboard/transcription"
)

const (
	// ProviderName is the registered name for the Whisper provider.
	ProviderName = "whisper"

	defaultURL           = "http://localhost:8387"
	defaultModel         = "base"
	defaultTimeout       = 60 * time.Second
	defaultHealthTimeout = 2 * time.Second
)

// Config holds configuration for the Whisper sidecar.
type Config struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider talks to a faster-whisper HTTP sidecar exposing POST /transcribe
// and GET /health.
type Provider struct {
	cfg    Config
	client *rest.Client
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates a new Whisper transcription provider.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.ApplyDefaults()
	hc := httpclient.Config{
		Name:           ProviderName,
		BaseURL:        cfg.URL,
		Timeout:        cfg.Timeout,
		CircuitBreaker: httpclient.DefaultCircuitBreakerConfig(ProviderName),
	}
	if cfg.APIKey != "" {
		hc.Auth = httpclient.BearerAuth(cfg.APIKey)
	}
	c, err := rest.New(hc)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: c}, nil
}

// Factory builds a Provider from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(m map[string]any) (transcription.Provider, error) {
		cfg := Config{
			URL:    provider.String(m, "url", ""),
			Model:  provider.String(m, "model", ""),
			APIKey: provider.String(m, "api_key", ""),
		}
		if v, ok := m["timeout"].(time.Duration); ok {
			cfg.Timeout = v
		}
		return NewProvider(cfg)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable probes the sidecar health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if !p.client.HTTP().Available() {
		return false
	}
	_, err := rest.Get[map[string]any](ctx, p.client, "/health", rest.WithTimeout(defaultHealthTimeout))
	return err == nil
}

// Transcribe uploads the artifact. With detection requested the language
// field is omitted and whisper detects it.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	start := time.Now()
	data, err := req.Audio.Bytes(ctx)
	if err != nil {
		return nil, transcription.Failed(ProviderName, "read audio", err)
	}

	fields := map[string]string{"model": p.cfg.Model}
	lang := transcription.ResolveLanguage(req.Language)
	if !lang.Auto {
		fields["language"] = transcription.BaseLanguage(lang.Primary)
	}

	resp, err := rest.Post[whisperResponse](ctx, p.client, "/transcribe", &httpclient.MultipartBody{
		Fields: fields,
		Files: []httpclient.FileField{{
			FieldName:   "audio",
			FileName:    "audio.wav",
			ContentType: req.Audio.MIME,
			Data:        data,
		}},
	})
	if err != nil {
		return nil, classify(err)
	}

	out := resp.Data
	result := &transcription.Result{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
		Metadata: map[string]any{
			"provider":   ProviderName,
			"model":      p.cfg.Model,
			"latency_ms": time.Since(start).Milliseconds(),
		},
	}
	if n := len(out.Segments); n > 0 {
		result.Duration = time.Duration(out.Segments[n-1].End * float64(time.Second))
	}
	return result, nil
}

func classify(err error) error {
	switch {
	case httpclient.IsCanceled(err):
		return err
	case httpclient.IsConnection(err), httpclient.IsTimeout(err), httpclient.IsServerError(err), httpclient.IsAuth(err):
		return transcription.Unavailable(ProviderName, err)
	default:
		return transcription.Failed(ProviderName, "sidecar rejected audio", err)
	}
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// String is for logs.
func (p *Provider) String() string {
	return fmt.Sprintf("whisper(%s, %s)", p.cfg.URL, p.cfg.Model)
}
