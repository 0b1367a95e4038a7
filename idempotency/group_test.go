package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_CoalescesConcurrentCalls(t *testing.T) {
	var g Group[string]
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	fn := func() (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return "done", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, _ = g.Do(context.Background(), "k", fn)
	}()
	<-started
	for i := 1; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var shared bool
			results[i], shared, _ = g.Do(context.Background(), "k", fn)
			if !shared {
				t.Errorf("caller %d was not shared", i)
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("fn ran %d times, want 1", n)
	}
	for i, r := range results {
		if r != "done" {
			t.Errorf("results[%d] = %q", i, r)
		}
	}
}

func TestGroup_ErrorShared(t *testing.T) {
	var g Group[int]
	boom := errors.New("boom")
	if _, _, err := g.Do(context.Background(), "k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	v, shared, err := g.Do(context.Background(), "k", func() (int, error) { return 7, nil })
	if err != nil || shared || v != 7 {
		t.Fatalf("second run = %d, %v, %v; key must be free after completion", v, shared, err)
	}
}

func TestGroup_WaiterContextCanceled(t *testing.T) {
	var g Group[int]
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _, _ = g.Do(context.Background(), "k", func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := g.Do(ctx, "k", func() (int, error) { return 2, nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	close(release)
}

func TestGroup_JoinerRerunsWhenRunnerCanceled(t *testing.T) {
	var g Group[int]
	release := make(chan struct{})
	started := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	runner := make(chan error, 1)
	go func() {
		_, _, err := g.Do(ctx, "k", func() (int, error) {
			close(started)
			<-release
			return 0, ctx.Err()
		})
		runner <- err
	}()
	<-started

	joiner := make(chan int, 1)
	go func() {
		v, _, err := g.Do(context.Background(), "k", func() (int, error) { return 2, nil })
		if err != nil {
			t.Errorf("joiner err = %v", err)
		}
		joiner <- v
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	close(release)

	if err := <-runner; !errors.Is(err, context.Canceled) {
		t.Fatalf("runner err = %v, want context.Canceled", err)
	}
	select {
	case v := <-joiner:
		if v != 2 {
			t.Fatalf("joiner got %d, want its own rerun", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("joiner never returned")
	}
}

func TestGroup_FailureWithLiveContextIsShared(t *testing.T) {
	var g Group[int]
	boom := errors.New("boom")
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _, _ = g.Do(context.Background(), "k", func() (int, error) {
			close(started)
			<-release
			return 0, boom
		})
	}()
	<-started

	var reran atomic.Bool
	done := make(chan error, 1)
	go func() {
		_, _, err := g.Do(context.Background(), "k", func() (int, error) {
			reran.Store(true)
			return 1, nil
		})
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	if err := <-done; !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the runner's error", err)
	}
	if reran.Load() {
		t.Error("joiner reran a failure that was not a cancellation")
	}
}
