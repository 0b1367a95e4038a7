package gemini

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kbukum/voxboard/provider"
	"github.com/kbukum/voxboard/resilience"
	"github.com/kbukum/voxboard/transcription"
)

const (
	// ProviderName is the registered name for the Gemini transcription backend.
	ProviderName = "gemini"

	defaultModel = "gemini-2.5-flash"

	// noSpeechMarker is what the model is told to answer when it hears nothing.
	noSpeechMarker = "[NO_SPEECH]"
)

// Config configures the Gemini backend.
type Config struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// models is the slice of genai.Models the provider uses.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Provider transcribes with Gemini audio understanding.
type Provider struct {
	cfg    Config
	models models
	cb     *resilience.CircuitBreaker
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider dials a genai client for the Gemini API backend.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	cc := &genai.ClientConfig{Backend: genai.BackendGeminiAPI, APIKey: cfg.APIKey}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newProvider(cfg, client.Models), nil
}

func newProvider(cfg Config, m models) *Provider {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	cbCfg := resilience.DefaultCircuitBreakerConfig(ProviderName + "-stt")
	cbCfg.IsFailure = func(err error) bool { return stderrors.Is(err, transcription.ErrProviderUnavailable) }
	return &Provider{cfg: cfg, models: m, cb: resilience.NewCircuitBreaker(cbCfg)}
}

// Factory builds a Provider from a generic config map.
func Factory(ctx context.Context) provider.Factory[transcription.Provider] {
	return func(m map[string]any) (transcription.Provider, error) {
		return NewProvider(ctx, Config{
			APIKey:  provider.String(m, "api_key", ""),
			BaseURL: provider.String(m, "base_url", ""),
			Model:   provider.String(m, "model", ""),
		})
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable fetches model metadata, which checks the key without
// spending any generation quota.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if p.cfg.APIKey == "" || !p.cb.Ready() {
		return false
	}
	_, err := p.models.Get(ctx, p.cfg.Model, nil)
	return err == nil
}

// Transcribe sends the artifact inline with a transcription instruction.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	if p.cfg.APIKey == "" {
		return nil, transcription.Unavailable(ProviderName, stderrors.New("api key not configured"))
	}
	data, err := req.Audio.Bytes(ctx)
	if err != nil {
		return nil, transcription.Failed(ProviderName, "read audio", err)
	}

	lang := transcription.ResolveLanguage(req.Language)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(buildPrompt(lang)),
			genai.NewPartFromBytes(data, req.Audio.MIME),
		}, genai.RoleUser),
	}
	var temperature float32

	start := time.Now()
	var resp *genai.GenerateContentResponse
	err = p.cb.Execute(func() error {
		var callErr error
		resp, callErr = p.models.GenerateContent(ctx, p.cfg.Model, contents, &genai.GenerateContentConfig{
			Temperature: &temperature,
		})
		return classify(callErr)
	})
	if err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			return nil, transcription.Unavailable(ProviderName, err)
		}
		return nil, err
	}

	text := strings.TrimSpace(resp.Text())
	if text == noSpeechMarker {
		text = ""
	}
	meta := map[string]any{
		"provider":   ProviderName,
		"model":      p.cfg.Model,
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if u := resp.UsageMetadata; u != nil {
		meta["total_tokens"] = int(u.TotalTokenCount)
	}
	out := &transcription.Result{Text: text, Metadata: meta}
	if !lang.Auto {
		out.Language = lang.Primary
	}
	return out, nil
}

func buildPrompt(lang transcription.LanguageSpec) string {
	var b strings.Builder
	b.WriteString("Transcribe this audio verbatim. Return only the transcript text, with no commentary. ")
	b.WriteString("If the audio contains no intelligible speech, return exactly " + noSpeechMarker + ".")
	if lang.Auto {
		fmt.Fprintf(&b, " The speaker most likely uses %s but may use any of: %s.",
			lang.Primary, strings.Join(lang.Alternatives, ", "))
	} else {
		fmt.Fprintf(&b, " The spoken language is %s.", lang.Primary)
	}
	return b.String()
}

func classify(err error) error {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return err
	}
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case stderrors.As(err, &apiErr):
		code = apiErr.Code
	case stderrors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if code == 0 || code >= 500 || code == http.StatusUnauthorized ||
		code == http.StatusForbidden || code == http.StatusTooManyRequests {
		return transcription.Unavailable(ProviderName, err)
	}
	return transcription.Failed(ProviderName, "request rejected", err)
}
