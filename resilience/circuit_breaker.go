package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is the position of a CircuitBreaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrCircuitOpen is returned by Execute while the breaker sheds calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a CircuitBreaker. Zero values take the
// defaults of DefaultCircuitBreakerConfig.
type CircuitBreakerConfig struct {
	Name string `yaml:"-" mapstructure:"-"`
	// MaxFailures consecutive failures trip the breaker.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Timeout is the cool-down before a tripped breaker lets probes through.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// HalfOpenMaxCalls probes must all succeed to close again.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`

	// IsFailure classifies results. Nil counts every non-nil error.
	IsFailure func(error) bool `yaml:"-" mapstructure:"-"`
	// OnStateChange observes transitions. It runs with the breaker locked
	// and must not call back into it.
	OnStateChange func(name string, from, to State) `yaml:"-" mapstructure:"-"`
	Now           func() time.Time                  `yaml:"-" mapstructure:"-"`
}

// DefaultCircuitBreakerConfig trips after 5 failures and probes once after 30s.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{Name: name, MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenMaxCalls: 1}
}

func (c *CircuitBreakerConfig) fill() {
	def := DefaultCircuitBreakerConfig(c.Name)
	if c.MaxFailures <= 0 {
		c.MaxFailures = def.MaxFailures
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// CircuitBreaker sheds calls to a backend that keeps failing. After
// MaxFailures consecutive failures it opens; once Timeout has passed it
// admits HalfOpenMaxCalls probes, closing when they all succeed and
// reopening on the first failure.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu     sync.Mutex
	state  State
	since  time.Time // when state was entered
	streak int       // consecutive failures while closed
	probes int       // probes admitted while half-open
	passed int       // probes that succeeded while half-open
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.fill()
	return &CircuitBreaker{cfg: cfg, since: cfg.Now()}
}

// Execute runs fn unless the breaker is shedding, and feeds its result back.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.observe(cb.cfg.IsFailure(err))
	return err
}

// Ready reports whether Execute would run now. It does not use up a probe.
func (cb *CircuitBreaker) Ready() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.refresh() {
	case StateOpen:
		return false
	case StateHalfOpen:
		return cb.probes < cb.cfg.HalfOpenMaxCalls
	}
	return true
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.refresh()
}

// Reset closes the breaker and forgets past failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.moveTo(StateClosed)
	cb.streak = 0
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.refresh() {
	case StateOpen:
		return false
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenMaxCalls {
			return false
		}
		cb.probes++
	}
	return true
}

func (cb *CircuitBreaker) observe(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.refresh() {
	case StateClosed:
		if !failed {
			cb.streak = 0
			return
		}
		if cb.streak++; cb.streak >= cb.cfg.MaxFailures {
			cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		if failed {
			cb.moveTo(StateOpen)
			return
		}
		if cb.passed++; cb.passed >= cb.cfg.HalfOpenMaxCalls {
			cb.moveTo(StateClosed)
		}
	}
}

// refresh lets an expired open state decay to half-open. Caller holds mu.
func (cb *CircuitBreaker) refresh() State {
	if cb.state == StateOpen && !cb.cfg.Now().Before(cb.since.Add(cb.cfg.Timeout)) {
		cb.moveTo(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) moveTo(next State) {
	prev := cb.state
	if prev == next {
		return
	}
	cb.state, cb.since = next, cb.cfg.Now()
	cb.probes, cb.passed = 0, 0
	if next == StateClosed {
		cb.streak = 0
	}
	if hook := cb.cfg.OnStateChange; hook != nil {
		hook(cb.cfg.Name, prev, next)
	}
}
