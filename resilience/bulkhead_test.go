package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// occupy holds the only slot of b until the returned func is called.
func occupy(t *testing.T, b *Bulkhead) (release func()) {
	t.Helper()
	held := make(chan struct{})
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_ = b.Execute(context.Background(), func() error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	return func() {
		close(done)
		<-finished
	}
}

func TestBulkhead_Saturated(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		maxWait time.Duration
		ctx     context.Context
		want    error
	}{
		{"no queue", 0, context.Background(), ErrBulkheadFull},
		{"queue times out", 10 * time.Millisecond, context.Background(), ErrBulkheadTimeout},
		{"caller gives up", time.Minute, canceled, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rejected []string
			b := NewBulkhead(BulkheadConfig{
				Name: "transcription", MaxConcurrent: 1, MaxWait: tt.maxWait,
				OnReject: func(name string) { rejected = append(rejected, name) },
			})
			release := occupy(t, b)

			ran := false
			err := b.Execute(tt.ctx, func() error { ran = true; return nil })
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if ran {
				t.Fatal("fn ran without a slot")
			}
			if len(rejected) != 1 || rejected[0] != "transcription" {
				t.Fatalf("rejections = %v", rejected)
			}

			release()
			if n := b.InUse(); n != 0 {
				t.Fatalf("in use after release = %d", n)
			}
		})
	}
}

func TestBulkhead_QueuedCallerGetsFreedSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})
	release := occupy(t, b)
	time.AfterFunc(20*time.Millisecond, release)

	got, err := ExecuteWithResult(context.Background(), b, func() (string, error) { return "transcript", nil })
	if err != nil || got != "transcript" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestBulkhead_PropagatesFnError(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{})
	boom := errors.New("engine crashed")
	if _, err := ExecuteWithResult(context.Background(), b, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if b.InUse() != 0 {
		t.Fatal("slot leaked")
	}
}
