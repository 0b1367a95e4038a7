package openai

import (
	"context"
	stderrors "errors"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/voxboard/llm"
	"github.com/kbukum/voxboard/provider"
)

const (
	// ProviderName is the registered name for the OpenAI chat backend.
	ProviderName = "openai"

	defaultModel = goopenai.GPT4oMini
)

// Config configures the OpenAI chat backend.
type Config struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// Provider implements llm.Provider with go-openai.
type Provider struct {
	cfg    Config
	client *goopenai.Client
}

var _ llm.Provider = (*Provider)(nil)

// NewProvider creates the backend.
func NewProvider(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Provider{cfg: cfg, client: goopenai.NewClientWithConfig(oc)}
}

// Factory builds a Provider from a generic config map.
func Factory() provider.Factory[llm.Provider] {
	return func(m map[string]any) (llm.Provider, error) {
		return NewProvider(Config{
			APIKey:  provider.String(m, "api_key", ""),
			BaseURL: provider.String(m, "base_url", ""),
			Model:   provider.String(m, "model", ""),
		}), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable lists models to check the key.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if p.cfg.APIKey == "" {
		return false
	}
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Complete sends a chat completion request.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	creq := goopenai.ChatCompletionRequest{Model: model, Messages: msgs, MaxTokens: req.MaxTokens}
	if req.Temperature != nil {
		creq.Temperature = float32(*req.Temperature)
	}

	resp, err := p.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return &llm.CompletionResponse{Model: resp.Model}, nil
	}
	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func classify(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	var apiErr *goopenai.APIError
	if stderrors.As(err, &apiErr) {
		return llm.FromStatus(ProviderName, apiErr.HTTPStatusCode, err)
	}
	var reqErr *goopenai.RequestError
	if stderrors.As(err, &reqErr) {
		return llm.FromStatus(ProviderName, reqErr.HTTPStatusCode, err)
	}
	return llm.FromStatus(ProviderName, 0, err)
}
