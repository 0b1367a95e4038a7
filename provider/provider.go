package provider

import "context"

// Provider is the base interface every swappable backend implements.
type Provider interface {
	// Name returns the backend name used in config and logs.
	Name() string
	// IsAvailable is a cheap readiness probe. It must not block for long.
	IsAvailable(ctx context.Context) bool
}

// Factory builds a provider from its config block.
type Factory[T Provider] func(cfg map[string]any) (T, error)
