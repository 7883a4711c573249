package loop

import (
	"context"
	"sync"
)

// Future is the outcome of loop work, settled exactly once.
//
// Resolve, Reject and Then must be called on the loop goroutine; Then
// callbacks run as microtasks. Wait, Done and Result are safe from any
// goroutine.
type Future[T any] struct {
	loop *Loop

	mu      sync.Mutex
	settled bool
	value   T
	err     error
	done    chan struct{}

	callbacks []func(T, error)
}

// NewFuture creates a pending future bound to l.
func NewFuture[T any](l *Loop) *Future[T] {
	return &Future[T]{loop: l, done: make(chan struct{})}
}

// Resolved returns a future already resolved with v.
func Resolved[T any](l *Loop, v T) *Future[T] {
	f := NewFuture[T](l)
	f.Resolve(v)
	return f
}

// Rejected returns a future already rejected with err.
func Rejected[T any](l *Loop, err error) *Future[T] {
	f := NewFuture[T](l)
	f.Reject(err)
	return f
}

// Resolve settles the future with v. It reports false if the future was
// already settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. It reports false if the future was
// already settled.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.value = v
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		f.schedule(cb, v, err)
	}
	return true
}

func (f *Future[T]) schedule(cb func(T, error), v T, err error) {
	f.loop.Queue(func() { cb(v, err) })
}

// Then registers fn to run as a microtask once the future settles.
func (f *Future[T]) Then(fn func(T, error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	f.schedule(fn, v, err)
}

// Done returns a channel closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome and whether the future has settled.
func (f *Future[T]) Result() (T, error, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err, f.settled
}

// Wait blocks until the future settles or ctx ends. It must not be called
// from the loop goroutine while the loop is needed to settle the future.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		v, err, _ := f.Result()
		return v, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Pipe settles dst with src's outcome once src settles.
func Pipe[T any](src, dst *Future[T]) {
	src.Then(func(v T, err error) {
		if err != nil {
			dst.Reject(err)
			return
		}
		dst.Resolve(v)
	})
}
