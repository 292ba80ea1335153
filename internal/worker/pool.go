package worker

import (
	"context"
	"sync"
)

// Task is a unit of work producing one result
type Task[R any] func(ctx context.Context) R

type indexed[R any] struct {
	i      int
	result R
}

type queued[R any] struct {
	i    int
	task Task[R]
}

// Pool runs tasks on a fixed set of workers. Wait returns results in
// submission order.
type Pool[R any] struct {
	workers    int
	queue      chan queued[R]
	results    chan indexed[R]
	submitted  int
	collected  []indexed[R]
	collectWg  sync.WaitGroup
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool with the given number of workers (minimum 1).
// Tasks receive a context derived from parent.
func NewPool[R any](parent context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool[R]{
		workers:    workers,
		queue:      make(chan queued[R], workers*2),
		results:    make(chan indexed[R], workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers and the result collector
func (p *Pool[R]) Start() {
	p.collectWg.Add(1)
	go func() {
		defer p.collectWg.Done()
		for r := range p.results {
			p.collected = append(p.collected, r)
		}
	}()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case q, ok := <-p.queue:
			if !ok {
				return
			}
			r := q.task(p.ctx)
			select {
			case p.results <- indexed[R]{i: q.i, result: r}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a task. It returns false once the pool is shut down.
// Submit is not safe for concurrent use with Wait.
func (p *Pool[R]) Submit(task Task[R]) bool {
	if p.ctx.Err() != nil {
		return false
	}
	q := queued[R]{i: p.submitted, task: task}
	select {
	case <-p.ctx.Done():
		return false
	case p.queue <- q:
		p.submitted++
		return true
	}
}

// Wait closes the queue, waits for the workers and returns results in
// submission order. Tasks dropped by a shutdown leave a zero result.
func (p *Pool[R]) Wait() []R {
	close(p.queue)
	p.wg.Wait()
	p.closeResults()
	p.collectWg.Wait()

	results := make([]R, p.submitted)
	for _, r := range p.collected {
		results[r.i] = r.result
	}
	return results
}

// Shutdown cancels running tasks and stops the workers
func (p *Pool[R]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	p.collectWg.Wait()
}

func (p *Pool[R]) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
