package local

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/voxboard/component"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/storage"
)

// Janitor removes artifacts left behind by crashed requests. Requests delete
// their own audio; the janitor only catches what a process exit skipped.
type Janitor struct {
	store    storage.Storage
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	last   error
}

// NewJanitor creates a janitor for store using cfg's age and interval.
func NewJanitor(store storage.Storage, cfg Config, log *logger.Logger) *Janitor {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Janitor{
		store:    store,
		maxAge:   cfg.MaxAge,
		interval: cfg.SweepInterval,
		now:      time.Now,
		log:      log.WithComponent("storage-janitor"),
	}
}

// Sweep deletes artifacts older than maxAge and returns how many it removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	files, err := j.store.List(ctx, "")
	if err != nil {
		return 0, err
	}
	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, f := range files {
		if f.LastModified.After(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, f.Path); err != nil {
			j.log.Warn("failed to remove stale artifact", logger.Fields("path", f.Path, logger.FieldError, err.Error()))
			continue
		}
		removed++
	}
	if removed > 0 {
		j.log.Info("removed stale artifacts", logger.Fields("count", removed))
	}
	return removed, nil
}

func (j *Janitor) Name() string { return "storage-janitor" }

// Start sweeps once, then on every interval until Stop.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j.cancel = cancel
	j.done = make(chan struct{})

	go func() {
		defer close(j.done)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			_, err := j.Sweep(runCtx)
			j.mu.Lock()
			j.last = err
			j.mu.Unlock()
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return nil
}

func (j *Janitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel = nil
	j.mu.Unlock()
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

func (j *Janitor) Health(context.Context) component.Health {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last != nil {
		return component.Health{Name: j.Name(), Status: component.StatusDegraded, Message: j.last.Error()}
	}
	return component.Health{Name: j.Name(), Status: component.StatusHealthy}
}
