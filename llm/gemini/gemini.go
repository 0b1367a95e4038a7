package gemini

import (
	"context"
	stderrors "errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/kbukum/voxboard/llm"
	"github.com/kbukum/voxboard/provider"
)

const (
	// ProviderName is the registered name for the Gemini chat backend.
	ProviderName = "gemini"

	defaultModel = "gemini-2.5-flash"
)

// Config configures the Gemini chat backend.
type Config struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Provider implements llm.Provider with genai.
type Provider struct {
	cfg    Config
	models models
}

var _ llm.Provider = (*Provider)(nil)

// NewProvider creates a genai client for the Gemini API backend.
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
	return &Provider{cfg: cfg, models: m}
}

// Factory builds a Provider from a generic config map.
func Factory(ctx context.Context) provider.Factory[llm.Provider] {
	return func(m map[string]any) (llm.Provider, error) {
		return NewProvider(ctx, Config{
			APIKey:  provider.String(m, "api_key", ""),
			BaseURL: provider.String(m, "base_url", ""),
			Model:   provider.String(m, "model", ""),
		})
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable fetches model metadata.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if p.cfg.APIKey == "" {
		return false
	}
	_, err := p.models.Get(ctx, p.cfg.Model, nil)
	return err == nil
}

// Complete maps the request onto GenerateContent. The system prompt becomes
// the system instruction; assistant turns use the model role.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	gc := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		gc.Temperature = &t
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		return nil, classify(err)
	}

	out := &llm.CompletionResponse{Content: resp.Text(), Model: model}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func classify(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return llm.FromStatus(ProviderName, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if stderrors.As(err, &apiErrPtr) {
		return llm.FromStatus(ProviderName, apiErrPtr.Code, err)
	}
	return llm.FromStatus(ProviderName, 0, err)
}
