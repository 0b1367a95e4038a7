package llm

import (
	"context"

	"github.com/kbukum/voxboard/provider"
)

// Provider is a chat-completion backend.
type Provider interface {
	provider.Provider

	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// NewRegistry creates a registry for LLM backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
