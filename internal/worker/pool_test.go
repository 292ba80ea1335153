package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p1 := NewPool[int](context.Background(), 5)
	if p1.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p1.workers)
	}

	p2 := NewPool[int](context.Background(), 0)
	if p2.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.workers)
	}

	p3 := NewPool[int](context.Background(), -1)
	if p3.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p3.workers)
	}
}

func TestPool_ResultsInSubmissionOrder(t *testing.T) {
	pool := NewPool[int](context.Background(), 4)
	pool.Start()

	var executed int32
	count := 40

	for i := 0; i < count; i++ {
		pool.Submit(func(ctx context.Context) int {
			atomic.AddInt32(&executed, 1)
			// Later tasks finish first
			time.Sleep(time.Duration(count-i) * 100 * time.Microsecond)
			return i
		})
	}

	results := pool.Wait()

	if len(results) != count {
		t.Fatalf("expected %d results, got %d", count, len(results))
	}
	for i, r := range results {
		if r != i {
			t.Fatalf("result %d out of order: got %d", i, r)
		}
	}
	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed tasks, got %d", count, executed)
	}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 10
	pool := NewPool[error](context.Background(), workers)
	pool.Start()

	var current int32
	var maxConcurrent int32
	var completed int32
	var mu sync.Mutex

	totalTasks := 50

	for i := 0; i < totalTasks; i++ {
		pool.Submit(func(ctx context.Context) error {
			curr := atomic.AddInt32(&current, 1)
			mu.Lock()
			if curr > maxConcurrent {
				maxConcurrent = curr
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			atomic.AddInt32(&current, -1)
			atomic.AddInt32(&completed, 1)
			return nil
		})
	}

	pool.Wait()

	if atomic.LoadInt32(&completed) != int32(totalTasks) {
		t.Errorf("expected %d completed tasks, got %d", totalTasks, completed)
	}

	mu.Lock()
	max := maxConcurrent
	mu.Unlock()

	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}
}

func TestPool_ManyTasksDoNotDeadlock(t *testing.T) {
	pool := NewPool[int](context.Background(), 2)
	pool.Start()

	done := make(chan []int)
	go func() {
		for i := 0; i < 500; i++ {
			pool.Submit(func(ctx context.Context) int { return 1 })
		}
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		if len(results) != 500 {
			t.Errorf("expected 500 results, got %d", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool deadlocked")
	}
}

func TestPool_ErrorResults(t *testing.T) {
	pool := NewPool[error](context.Background(), 2)
	pool.Start()

	pool.Submit(func(ctx context.Context) error { return errors.New("task error") })
	pool.Submit(func(ctx context.Context) error { return nil })

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0] == nil || results[1] != nil {
		t.Errorf("unexpected results %v", results)
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool[int](context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool)
	go func() {
		done <- pool.Submit(func(ctx context.Context) int { return 1 })
	}()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected Submit to refuse tasks after shutdown")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool[error](context.Background(), 2)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(func(ctx context.Context) error {
		close(started)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	<-started

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Shutdown timed out")
	}
}

func TestPool_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool[error](ctx, 1)
	pool.Start()

	cancel()
	if pool.Submit(func(ctx context.Context) error { return nil }) {
		t.Error("expected Submit to fail after parent cancel")
	}
	pool.Wait()
}
