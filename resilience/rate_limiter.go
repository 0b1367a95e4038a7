package resilience

import (
	"sync"
	"time"
)

// FixedWindowConfig configures a keyed fixed-window limiter.
type FixedWindowConfig struct {
	// Limit is the number of requests allowed per key per window.
	Limit int `yaml:"limit" mapstructure:"limit"`
	// Window is the length of each counting window.
	Window time.Duration `yaml:"window" mapstructure:"window"`
	// Now overrides the clock in tests.
	Now func() time.Time `yaml:"-" mapstructure:"-"`
}

// FixedWindowLimiter counts requests per key in aligned windows. A key's
// counter resets when the first request of a new window arrives.
type FixedWindowLimiter struct {
	config FixedWindowConfig

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	count int
}

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// NewFixedWindowLimiter creates a limiter, defaulting to 60 requests per minute.
func NewFixedWindowLimiter(config FixedWindowConfig) *FixedWindowLimiter {
	if config.Limit <= 0 {
		config.Limit = 60
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &FixedWindowLimiter{config: config, windows: make(map[string]*window)}
}

// Allow records one request for key and reports whether it fits the window.
func (l *FixedWindowLimiter) Allow(key string) Decision {
	now := l.config.Now()
	start := now.Truncate(l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !w.start.Equal(start) {
		w = &window{start: start}
		l.windows[key] = w
	}

	reset := start.Add(l.config.Window)
	if w.count >= l.config.Limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: reset}
	}
	w.count++
	return Decision{Allowed: true, Remaining: l.config.Limit - w.count, ResetAt: reset}
}

// Prune drops counters from past windows and returns how many were removed.
func (l *FixedWindowLimiter) Prune() int {
	start := l.config.Now().Truncate(l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, w := range l.windows {
		if w.start.Before(start) {
			delete(l.windows, k)
			removed++
		}
	}
	return removed
}

// Limit returns the per-window request allowance.
func (l *FixedWindowLimiter) Limit() int {
	return l.config.Limit
}
