package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"github.com/kbukum/voxboard/llm"
)

type fakeModels struct {
	got  *genai.GenerateContentConfig
	msgs []*genai.Content
	err  error
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.got, f.msgs = cfg, contents
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText("Formatted.", genai.RoleModel)}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 2,
			TotalTokenCount:      12,
		},
	}, nil
}

func (f *fakeModels) Get(context.Context, string, *genai.GetModelConfig) (*genai.Model, error) {
	return &genai.Model{}, f.err
}

func TestComplete(t *testing.T) {
	fm := &fakeModels{}
	p := newProvider(Config{APIKey: "k"}, fm)

	resp, err := llm.Complete(context.Background(), p, "fix punctuation", "formatted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "Formatted." || resp.Usage.TotalTokens != 12 || resp.Usage.PromptTokens != 10 {
		t.Errorf("resp = %+v", resp)
	}
	if fm.got.SystemInstruction == nil || fm.got.SystemInstruction.Parts[0].Text != "fix punctuation" {
		t.Error("system prompt not mapped to system instruction")
	}
	if len(fm.msgs) != 1 || fm.msgs[0].Role != string(genai.RoleUser) {
		t.Errorf("contents = %+v", fm.msgs)
	}
}

func TestComplete_ErrorClassification(t *testing.T) {
	p := newProvider(Config{APIKey: "k"}, &fakeModels{err: genai.APIError{Code: 403, Message: "denied"}})
	if _, err := llm.Complete(context.Background(), p, "", "x"); err == nil || llm.IsRetryable(err) {
		t.Errorf("403 should not be retryable: %v", err)
	}
	p = newProvider(Config{APIKey: "k"}, &fakeModels{err: genai.APIError{Code: 500}})
	if _, err := llm.Complete(context.Background(), p, "", "x"); !llm.IsRetryable(err) {
		t.Errorf("500 should be retryable: %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	if newProvider(Config{}, &fakeModels{}).IsAvailable(context.Background()) {
		t.Error("no key must be unavailable")
	}
	if !newProvider(Config{APIKey: "k"}, &fakeModels{}).IsAvailable(context.Background()) {
		t.Error("expected available")
	}
}
