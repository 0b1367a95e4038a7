package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TypedStore keeps JSON-encoded values of type V under a key prefix.
type TypedStore[V any] struct {
	client    *Client
	keyPrefix string
}

// NewTypedStore prefixes every key with keyPrefix and a colon.
func NewTypedStore[V any](client *Client, keyPrefix string) *TypedStore[V] {
	return &TypedStore[V]{client: client, keyPrefix: keyPrefix}
}

func (s *TypedStore[V]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load decodes the value at key. A missing key returns (nil, nil).
func (s *TypedStore[V]) Load(ctx context.Context, key string) (*V, error) {
	raw, found, err := s.client.Get(ctx, s.fullKey(key))
	if err != nil {
		return nil, fmt.Errorf("typed store load %q: %w", key, err)
	}
	if !found {
		return nil, nil
	}
	var val V
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, fmt.Errorf("typed store decode %q: %w", key, err)
	}
	return &val, nil
}

// Save stores val with ttl, overwriting.
func (s *TypedStore[V]) Save(ctx context.Context, key string, val V, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store encode %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.fullKey(key), data, ttl); err != nil {
		return fmt.Errorf("typed store save %q: %w", key, err)
	}
	return nil
}

// SaveIfAbsent stores val only when key is free and reports whether it won.
func (s *TypedStore[V]) SaveIfAbsent(ctx context.Context, key string, val V, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return false, fmt.Errorf("typed store encode %q: %w", key, err)
	}
	ok, err := s.client.SetNX(ctx, s.fullKey(key), data, ttl)
	if err != nil {
		return false, fmt.Errorf("typed store save %q: %w", key, err)
	}
	return ok, nil
}

// Delete removes key.
func (s *TypedStore[V]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.fullKey(key)); err != nil {
		return fmt.Errorf("typed store delete %q: %w", key, err)
	}
	return nil
}
