package ollama

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kbukum/voxboard/httpclient"
	"github.com/kbukum/voxboard/httpclient/rest"
	"github.com/kbukum/voxboard/llm"
	"github.com/kbukum/voxboard/provider"
)

const (
	// ProviderName is the registered name for the Ollama provider.
	ProviderName = "ollama"

	defaultURL     = "http://localhost:11434"
	defaultModel   = "llama3.2"
	defaultTimeout = 60 * time.Second
	probeTimeout   = 2 * time.Second
)

// Config holds configuration for the Ollama provider.
type Config struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Provider implements llm.Provider against Ollama's /api/chat.
type Provider struct {
	cfg    Config
	client *rest.Client
}

var _ llm.Provider = (*Provider)(nil)

// NewProvider creates a new Ollama LLM provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c, err := rest.New(httpclient.Config{Name: ProviderName, BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: c}, nil
}

// Factory builds a Provider from a generic config map.
func Factory() provider.Factory[llm.Provider] {
	return func(m map[string]any) (llm.Provider, error) {
		cfg := Config{
			BaseURL: provider.String(m, "base_url", ""),
			Model:   provider.String(m, "model", ""),
		}
		if v, ok := m["timeout"].(time.Duration); ok {
			cfg.Timeout = v
		}
		return NewProvider(cfg)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable lists local models.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := rest.Get[tagsResponse](ctx, p.client, "/api/tags", rest.WithTimeout(probeTimeout))
	return err == nil
}

// Complete sends a non-streaming chat request.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := rest.Post[chatResponse](ctx, p.client, "/api/chat", p.buildChatRequest(req))
	if err != nil {
		return nil, classify(err)
	}
	out := resp.Data
	return &llm.CompletionResponse{
		Content: out.Message.Content,
		Model:   out.Model,
		Usage: llm.Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}

func classify(err error) error {
	var he *httpclient.Error
	if stderrors.As(err, &he) {
		if he.Code == httpclient.ErrCodeCanceled {
			return err
		}
		return llm.FromStatus(ProviderName, he.StatusCode, err)
	}
	return llm.FromStatus(ProviderName, 0, err)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (p *Provider) buildChatRequest(req llm.CompletionRequest) chatRequest {
	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	msgs := make([]chatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: llm.RoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	out := chatRequest{Model: model, Messages: msgs}
	if req.Temperature != nil || req.MaxTokens > 0 {
		out.Options = &chatOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}
	return out
}
