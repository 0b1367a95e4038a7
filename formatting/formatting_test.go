package formatting

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/llm"
)

type fakeLLM struct {
	reply string
	usage llm.Usage
	err   error
	got   llm.CompletionRequest
	calls int
}

func (f *fakeLLM) Name() string                     { return "fake" }
func (f *fakeLLM) IsAvailable(context.Context) bool { return true }
func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Usage: f.usage}, nil
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"single placeholder", "Summarize: {{transcript}}", "Summarize: hi there"},
		{"repeated placeholder", "{{transcript}} / {{transcript}} / {{transcript}}", "hi there / hi there / hi there"},
		{"no placeholder", "Make it formal.", "Make it formal.\n\nTranscript: hi there"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildPrompt(tt.template, "hi there"); got != tt.want {
				t.Errorf("BuildPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPrompt_Default(t *testing.T) {
	got := BuildPrompt("", "hello world")
	if strings.Contains(got, Placeholder) || !strings.HasSuffix(got, "hello world") {
		t.Errorf("default prompt = %q", got)
	}
}

func TestLLMFormatter_Format(t *testing.T) {
	fake := &fakeLLM{reply: "```\nHello world, this is a test.\n```", usage: llm.Usage{PromptTokens: 30, CompletionTokens: 8, TotalTokens: 38}}
	f := NewLLMFormatter(fake)

	res, err := f.Format(context.Background(), Request{Transcript: "hello world this is a test", Template: "Polish: {{transcript}}"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Hello world, this is a test." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Usage == nil || res.Usage.TotalTokens != 38 {
		t.Errorf("Usage = %+v", res.Usage)
	}
	if fake.got.SystemPrompt != DefaultSystemPrompt {
		t.Error("system prompt not set")
	}
	if fake.got.Messages[0].Content != "Polish: hello world this is a test" {
		t.Errorf("prompt = %q", fake.got.Messages[0].Content)
	}
}

func TestLLMFormatter_NoUsage(t *testing.T) {
	f := NewLLMFormatter(&fakeLLM{reply: "ok"})
	res, err := f.Format(context.Background(), Request{Transcript: "ok"})
	if err != nil || res.Usage != nil {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
}

func TestLLMFormatter_Errors(t *testing.T) {
	tests := []struct {
		name      string
		fake      *fakeLLM
		retryable bool
	}{
		{"empty output", &fakeLLM{reply: "   "}, true},
		{"server fault", &fakeLLM{err: llm.FromStatus("fake", 503, stderrors.New("down"))}, true},
		{"rejected key", &fakeLLM{err: llm.FromStatus("fake", 401, stderrors.New("bad key"))}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLLMFormatter(tt.fake).Format(context.Background(), Request{Transcript: "x"})
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeFormattingFailed {
				t.Fatalf("err = %v, want FORMATTING_FAILED", err)
			}
			if appErr.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", appErr.Retryable, tt.retryable)
			}
		})
	}
}

func TestLLMFormatter_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLLMFormatter(&fakeLLM{err: context.Canceled}).Format(ctx, Request{Transcript: "x"})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
