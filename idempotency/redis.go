package idempotency

import (
	"context"
	"time"

	"github.com/kbukum/voxboard/redis"
)

// RedisCache shares responses across instances. Expiry is redis-native, so
// there is nothing to sweep.
type RedisCache[V any] struct {
	store *redis.TypedStore[V]
	ttl   time.Duration
}

var _ Cache[int] = (*RedisCache[int])(nil)

// NewRedisCache stores entries under prefix with ttl.
func NewRedisCache[V any](client *redis.Client, prefix string, ttl time.Duration) *RedisCache[V] {
	return &RedisCache[V]{store: redis.NewTypedStore[V](client, prefix), ttl: ttl}
}

// Get loads key.
func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	v, err := c.store.Load(ctx, key)
	if err != nil || v == nil {
		return zero, false, err
	}
	return *v, true, nil
}

// Set overwrites key.
func (c *RedisCache[V]) Set(ctx context.Context, key string, value V) error {
	return c.store.Save(ctx, key, value, c.ttl)
}

// SetIfAbsent uses SET NX. When another writer won, its value is read back;
// if that entry expired in between, value is stored instead.
func (c *RedisCache[V]) SetIfAbsent(ctx context.Context, key string, value V) (V, bool, error) {
	var zero V
	for range 2 {
		won, err := c.store.SaveIfAbsent(ctx, key, value, c.ttl)
		if err != nil {
			return zero, false, err
		}
		if won {
			return value, true, nil
		}
		existing, err := c.store.Load(ctx, key)
		if err != nil {
			return zero, false, err
		}
		if existing != nil {
			return *existing, false, nil
		}
	}
	return value, false, nil
}
