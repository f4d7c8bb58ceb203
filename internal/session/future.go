package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrProtocolViolation marks a remote peer that broke the session protocol.
// It is always fatal for the session.
var ErrProtocolViolation = errors.New("session protocol violation")

// ErrAlreadyResolved is returned when a Future is resolved or rejected twice.
var ErrAlreadyResolved = fmt.Errorf("%w: future already resolved", ErrProtocolViolation)

// Future is a single-assignment result. It is resolved or rejected exactly
// once; any further attempt returns ErrAlreadyResolved and leaves the
// original outcome in place.
type Future[T any] struct {
	mu    sync.Mutex
	done  chan struct{}
	value T
	err   error
	set   bool
}

// NewFuture creates an unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve completes the future with a value.
func (f *Future[T]) Resolve(value T) error {
	return f.complete(value, nil)
}

// Reject completes the future with an error.
func (f *Future[T]) Reject(err error) error {
	if err == nil {
		return errors.New("reject with nil error")
	}
	var zero T
	return f.complete(zero, err)
}

func (f *Future[T]) complete(value T, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.set {
		return ErrAlreadyResolved
	}
	f.value = value
	f.err = err
	f.set = true
	close(f.done)
	return nil
}

// Done returns a channel that is closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait suspends until the future completes or ctx is done. Cancelling ctx
// abandons the wait but doesn't complete the future.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
