// Package async runs functions in goroutines and exposes their results as
// futures.
//
// A panic inside the function is recovered and reported as ErrPanic through
// the future, so a failing background task never takes the process down.
package async

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTimeout = errors.New("async: timed out waiting for future")
	ErrPanic   = errors.New("async: task panicked")
)

// Future holds the eventual result of a task started with Go.
type Future[T any] struct {
	done   chan struct{}
	result T
	err    error
}

// Go starts fn in a new goroutine. ctx is passed through unchanged; fn is
// responsible for honouring cancellation.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		f.result, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the task finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the task finished.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext waits for the task or ctx, whichever comes first. Giving up
// on the wait does not stop the task.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitTimeout waits at most d and returns ErrTimeout after that.
func (f *Future[T]) AwaitTimeout(d time.Duration) (T, error) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-f.done:
		return f.result, f.err
	case <-t.C:
		var zero T
		return zero, ErrTimeout
	}
}
