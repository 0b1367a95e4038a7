package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/voxboard/llm"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewProvider(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
}

func TestComplete(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req goopenai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != goopenai.ChatMessageRoleSystem {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			Model: req.Model,
			Choices: []goopenai.ChatCompletionChoice{{
				Message: goopenai.ChatCompletionMessage{Role: "assistant", Content: "Hello world."},
			}},
			Usage: goopenai.Usage{PromptTokens: 20, CompletionTokens: 3, TotalTokens: 23},
		})
	})

	resp, err := llm.Complete(context.Background(), p, "fix punctuation", "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "Hello world." || resp.Usage.TotalTokens != 23 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestComplete_AuthErrorNotRetryable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	})
	_, err := llm.Complete(context.Background(), p, "", "hi")
	if err == nil || llm.IsRetryable(err) {
		t.Fatalf("401 should be a non-retryable error, got %v", err)
	}
}

func TestComplete_ServerErrorRetryable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream","type":"server_error"}}`))
	})
	_, err := llm.Complete(context.Background(), p, "", "hi")
	if !llm.IsRetryable(err) {
		t.Fatalf("5xx should be retryable, got %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	if NewProvider(Config{}).IsAvailable(context.Background()) {
		t.Error("no key must be unavailable")
	}
}
