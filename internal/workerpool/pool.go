// Package workerpool runs blocking work (password hashing, database round
// trips) on a bounded set of goroutines so that slow credential checks cannot
// starve unrelated requests.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

var (
	ErrPoolClosed   = errors.New("worker pool closed")
	ErrWorkPanicked = errors.New("work item panicked")
)

// Pool bounds the number of concurrently running work items.
type Pool struct {
	sem  *semaphore.Weighted
	size int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New returns a pool running at most size items at once (size < 1 means 1).
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

// Size returns the maximum number of concurrent work items.
func (p *Pool) Size() int { return int(p.size) }

// Future is the pending result of a submitted work item.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Await blocks until the work item finishes or ctx is done. Cancelling ctx
// only stops the wait; the work item itself keeps running to completion.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Submit queues fn on p. Waiting for a free slot honours ctx: a caller whose
// ctx ends while queued gets ctx.Err() and fn never runs. Once started, fn
// receives a context that keeps ctx's values but not its cancellation, so a
// started write is never abandoned halfway.
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		f.err = ErrPoolClosed
		close(f.done)
		return f
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	go func() {
		defer p.wg.Done()
		defer close(f.done)

		if err := p.sem.Acquire(ctx, 1); err != nil {
			f.err = err
			return
		}
		defer p.sem.Release(1)

		f.value, f.err = run(context.WithoutCancel(ctx), fn)
	}()

	return f
}

// Do submits fn and waits for its result.
func Do[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	return Submit(ctx, p, fn).Await(ctx)
}

// Close stops accepting work and waits for queued and running items.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

func run[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, fmt.Errorf("%w: %v", ErrWorkPanicked, r)
		}
	}()
	return fn(ctx)
}
