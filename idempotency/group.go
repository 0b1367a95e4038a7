package idempotency

import (
	"context"
	"sync"
)

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
	// abandoned is set when the run failed after its caller's ctx ended.
	abandoned bool
}

// Group runs one computation per key at a time. Callers arriving while a
// computation is in flight wait for its result instead of starting their
// own.
type Group[V any] struct {
	mu    sync.Mutex
	calls map[string]*call[V]
}

// Do runs fn for key, or joins the in-flight run. shared is true for callers
// that joined. A joining caller whose ctx ends stops waiting; the running
// computation is not affected. A run that fails after its own caller's ctx
// ended is not handed to joiners: they start over, the first becoming the
// new runner.
func (g *Group[V]) Do(ctx context.Context, key string, fn func() (V, error)) (v V, shared bool, err error) {
	for {
		g.mu.Lock()
		if g.calls == nil {
			g.calls = make(map[string]*call[V])
		}
		c, ok := g.calls[key]
		if !ok {
			c = &call[V]{done: make(chan struct{})}
			g.calls[key] = c
			g.mu.Unlock()
			return g.run(ctx, key, c, fn)
		}
		g.mu.Unlock()
		select {
		case <-c.done:
			if c.abandoned {
				continue
			}
			return c.val, true, c.err
		case <-ctx.Done():
			var zero V
			return zero, true, ctx.Err()
		}
	}
}

func (g *Group[V]) run(ctx context.Context, key string, c *call[V], fn func() (V, error)) (V, bool, error) {
	defer func() {
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()
	c.val, c.err = fn()
	c.abandoned = c.err != nil && ctx.Err() != nil
	return c.val, false, c.err
}
