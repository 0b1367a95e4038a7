package formatting

import (
	"context"

	"github.com/kbukum/voxboard/provider"
)

// Provider rewrites a raw transcript into polished text.
type Provider interface {
	provider.Provider
	Format(ctx context.Context, req Request) (*Result, error)
}

// Request is one formatting job. Mode is a free-form label carried for
// logging only.
type Request struct {
	Transcript string
	Template   string
	Mode       string
}

// Usage is token accounting reported by the model.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Result is the formatted text. Usage is nil when the backend reports none.
type Result struct {
	Text  string
	Usage *Usage
}
