package idempotency

import "context"

// Cache maps a request id to its finished response for a fixed TTL. TTL is
// counted from the write and never renewed by reads. Implementations are
// safe for concurrent use; a reader sees a whole entry or none.
type Cache[V any] interface {
	// Get returns the live entry for key. Expired entries are absent.
	Get(ctx context.Context, key string) (V, bool, error)
	// Set stores value under key, replacing any entry.
	Set(ctx context.Context, key string, value V) error
	// SetIfAbsent stores value only if key has no live entry. It returns the
	// entry that is cached afterwards and whether value was the one stored.
	SetIfAbsent(ctx context.Context, key string, value V) (V, bool, error)
}
