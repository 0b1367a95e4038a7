package formatting

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/llm"
	"github.com/kbukum/voxboard/logger"
)

var errEmptyOutput = stderrors.New("model returned no text")

// LLMFormatter formats through any llm.Provider.
type LLMFormatter struct {
	llm          llm.Provider
	systemPrompt string
	temperature  float64
	log          *logger.Logger
}

var _ Provider = (*LLMFormatter)(nil)

// Option configures an LLMFormatter.
type Option func(*LLMFormatter)

// WithSystemPrompt overrides DefaultSystemPrompt.
func WithSystemPrompt(s string) Option {
	return func(f *LLMFormatter) { f.systemPrompt = s }
}

// WithTemperature sets the sampling temperature. Default 0.2.
func WithTemperature(t float64) Option {
	return func(f *LLMFormatter) { f.temperature = t }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(f *LLMFormatter) { f.log = l }
}

// NewLLMFormatter wraps p.
func NewLLMFormatter(p llm.Provider, opts ...Option) *LLMFormatter {
	f := &LLMFormatter{
		llm:          p,
		systemPrompt: DefaultSystemPrompt,
		temperature:  0.2,
		log:          logger.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.WithComponent("formatting")
	return f
}

// Name reports the underlying model backend.
func (f *LLMFormatter) Name() string { return f.llm.Name() }

// IsAvailable delegates to the model backend.
func (f *LLMFormatter) IsAvailable(ctx context.Context) bool { return f.llm.IsAvailable(ctx) }

// Format runs one completion. Failures come back as FORMATTING_FAILED with
// Retryable set from the backend classification; caller cancellation is
// returned as is.
func (f *LLMFormatter) Format(ctx context.Context, req Request) (*Result, error) {
	temp := f.temperature
	resp, err := f.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: f.systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: BuildPrompt(req.Template, req.Transcript)}},
		Temperature:  &temp,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.log.Error("formatting call failed", logger.Fields(
			"provider", f.llm.Name(), "mode", req.Mode, "error", err.Error()))
		appErr := errors.FormattingFailed(err)
		appErr.Retryable = llm.IsRetryable(err)
		return nil, appErr
	}

	text := llm.CleanOutput(resp.Content)
	if text == "" {
		f.log.Warn("formatting returned empty text", logger.Fields("provider", f.llm.Name(), "mode", req.Mode))
		return nil, errors.FormattingFailed(errEmptyOutput)
	}

	out := &Result{Text: text}
	if u := resp.Usage; u.TotalTokens > 0 || u.PromptTokens > 0 || u.CompletionTokens > 0 {
		out.Usage = &Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return out, nil
}
