package resilience

import (
	"context"
	"errors"
	"time"
)

// Bulkhead rejections. Both mean the dependency is saturated.
var (
	ErrBulkheadFull    = errors.New("bulkhead: no free slot")
	ErrBulkheadTimeout = errors.New("bulkhead: timed out waiting for a slot")
)

// BulkheadConfig caps concurrent calls into one dependency.
type BulkheadConfig struct {
	Name          string `yaml:"-" mapstructure:"-"`
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// MaxWait is how long a caller queues for a slot; zero rejects at once.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
	// OnReject observes every rejection, for metrics.
	OnReject func(name string) `yaml:"-" mapstructure:"-"`
}

// Bulkhead is a counting semaphore with a bounded queue wait.
type Bulkhead struct {
	cfg   BulkheadConfig
	slots chan struct{}
}

// NewBulkhead sizes the bulkhead; MaxConcurrent defaults to 10.
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	return &Bulkhead{cfg: cfg, slots: make(chan struct{}, cfg.MaxConcurrent)}
}

// Execute runs fn while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.enter(ctx); err != nil {
		if b.cfg.OnReject != nil {
			b.cfg.OnReject(b.cfg.Name)
		}
		return err
	}
	defer func() { <-b.slots }()
	return fn()
}

// ExecuteWithResult is Execute for functions that produce a value.
func ExecuteWithResult[T any](ctx context.Context, b *Bulkhead, fn func() (T, error)) (T, error) {
	var out T
	err := b.Execute(ctx, func() (err error) {
		out, err = fn()
		return err
	})
	return out, err
}

func (b *Bulkhead) enter(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	default:
		if b.cfg.MaxWait <= 0 {
			return ErrBulkheadFull
		}
	}

	wait := time.NewTimer(b.cfg.MaxWait)
	defer wait.Stop()
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wait.C:
		return ErrBulkheadTimeout
	}
}

// InUse is the number of held slots.
func (b *Bulkhead) InUse() int { return len(b.slots) }
