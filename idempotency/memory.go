package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/voxboard/component"
	"github.com/kbukum/voxboard/logger"
)

type entry[V any] struct {
	value   V
	created time.Time
	expires time.Time
}

// MemoryCache is a mutex-guarded map with lazy expiry on read and a
// periodic sweep. It doubles as the component that runs the sweep.
type MemoryCache[V any] struct {
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger

	mu      sync.RWMutex
	entries map[string]entry[V]

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var (
	_ Cache[int]          = (*MemoryCache[int])(nil)
	_ component.Component = (*MemoryCache[int])(nil)
)

// MemoryOption configures a MemoryCache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
	log *logger.Logger
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) MemoryOption {
	return func(o *memoryOptions) { o.log = l }
}

// NewMemoryCache creates a cache whose entries live for ttl and are swept
// every interval once Start runs.
func NewMemoryCache[V any](ttl, interval time.Duration, opts ...MemoryOption) *MemoryCache[V] {
	o := memoryOptions{now: time.Now, log: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryCache[V]{
		ttl:      ttl,
		interval: interval,
		now:      o.now,
		log:      o.log.WithComponent("idempotency"),
		entries:  make(map[string]entry[V]),
	}
}

func (c *MemoryCache[V]) live(key string, now time.Time) (entry[V], bool) {
	e, ok := c.entries[key]
	if !ok || !now.Before(e.expires) {
		return entry[V]{}, false
	}
	return e, true
}

// Get returns the entry for key unless it has expired.
func (c *MemoryCache[V]) Get(_ context.Context, key string) (V, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.live(key, now)
	c.mu.RUnlock()
	return e.value, ok, nil
}

// Set stores value with a fresh TTL.
func (c *MemoryCache[V]) Set(_ context.Context, key string, value V) error {
	now := c.now()
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, created: now, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// SetIfAbsent keeps the first live entry.
func (c *MemoryCache[V]) SetIfAbsent(_ context.Context, key string, value V) (V, bool, error) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.live(key, now); ok {
		return e.value, false, nil
	}
	c.entries[key] = entry[V]{value: value, created: now, expires: now.Add(c.ttl)}
	return value, true, nil
}

// Sweep drops expired entries and returns how many it removed.
func (c *MemoryCache[V]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, expired or not.
func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Name returns the component name.
func (c *MemoryCache[V]) Name() string { return "idempotency-cache" }

// Start launches the sweeper.
func (c *MemoryCache[V]) Start(context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
	c.log.Info("cache sweeper started", logger.Fields("ttl", c.ttl.String(), "interval", c.interval.String()))
	return nil
}

func (c *MemoryCache[V]) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.log.Debug("swept expired responses", logger.Fields("removed", n))
			}
		}
	}
}

// Stop halts the sweeper and waits for it.
func (c *MemoryCache[V]) Stop(ctx context.Context) error {
	c.runMu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.runMu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports the entry count.
func (c *MemoryCache[V]) Health(context.Context) component.Health {
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d entries", c.Len()),
	}
}
