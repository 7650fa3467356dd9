// Package persistence is the key-value layer under the entity store. A
// Backend performs blocking get/set/remove against a concrete store; an
// Adapter wraps a Backend either synchronously or behind a FIFO worker so
// the store sees one interface regardless of the backend's nature.
package persistence

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by operations issued after Close.
	ErrClosed = errors.New("persistence adapter is closed")
)

// Backend is a blocking key-value store. Get reports found=false for
// absent keys and must not return an error in that case.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Adapter is what the entity store talks to. Every call returns a Result
// immediately; whether the Result is already complete depends on the
// adapter variant.
type Adapter interface {
	Get(key string) *Result
	Set(key, value string) *Result
	Remove(key string) *Result
	Close() error
}

// Result is the outcome of one persistence call.
type Result struct {
	done  chan struct{}
	value string
	found bool
	err   error
}

func newPending() *Result {
	return &Result{done: make(chan struct{})}
}

// Completed returns a Result that is already resolved.
func Completed(value string, found bool, err error) *Result {
	r := newPending()
	r.complete(value, found, err)
	return r
}

func (r *Result) complete(value string, found bool, err error) {
	r.value = value
	r.found = found
	r.err = err
	close(r.done)
}

// Done is closed once the operation has finished.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the operation finishes or ctx is done.
func (r *Result) Wait(ctx context.Context) (string, bool, error) {
	select {
	case <-r.done:
		return r.value, r.found, r.err
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Then runs fn with the outcome. It runs inline when the Result is already
// complete and on its own goroutine otherwise.
func (r *Result) Then(fn func(value string, found bool, err error)) {
	select {
	case <-r.done:
		fn(r.value, r.found, r.err)
	default:
		go func() {
			<-r.done
			fn(r.value, r.found, r.err)
		}()
	}
}
