package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

type opKind int

const (
	opGet opKind = iota
	opSet
	opRemove
)

type op struct {
	kind  opKind
	key   string
	value string
	res   *Result
}

type asyncAdapter struct {
	backend Backend
	timeout time.Duration
	wake    chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	pending []op
	closed  bool
}

// NewAsync wraps b behind a single worker goroutine. Calls return a pending
// Result right away and never wait on the backend; operations run in
// submission order, so the last write to a key wins. Close drains queued
// operations before closing b.
func NewAsync(b Backend, opts ...Option) Adapter {
	o := buildOptions(opts)
	a := &asyncAdapter{
		backend: b,
		timeout: o.timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		pending: make([]op, 0, o.queueSize),
	}
	go a.run()
	return a
}

func (a *asyncAdapter) run() {
	defer close(a.done)
	for {
		a.mu.Lock()
		batch := a.pending
		a.pending = nil
		closed := a.closed
		a.mu.Unlock()

		for _, o := range batch {
			a.exec(o)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-a.wake
	}
}

func (a *asyncAdapter) exec(o op) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	switch o.kind {
	case opGet:
		v, found, err := a.backend.Get(ctx, o.key)
		o.res.complete(v, found, err)
	case opSet:
		o.res.complete("", false, a.backend.Set(ctx, o.key, o.value))
	case opRemove:
		o.res.complete("", false, a.backend.Remove(ctx, o.key))
	}
}

// enqueue appends to the pending list and never blocks on the worker.
// Callers hold the store's write lock, so a slow backend must not stall them.
func (a *asyncAdapter) enqueue(kind opKind, key, value string) *Result {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return Completed("", false, ErrClosed)
	}
	o := op{kind: kind, key: key, value: value, res: newPending()}
	a.pending = append(a.pending, o)
	a.mu.Unlock()
	a.signal()
	return o.res
}

func (a *asyncAdapter) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *asyncAdapter) Get(key string) *Result {
	return a.enqueue(opGet, key, "")
}

func (a *asyncAdapter) Set(key, value string) *Result {
	return a.enqueue(opSet, key, value)
}

func (a *asyncAdapter) Remove(key string) *Result {
	return a.enqueue(opRemove, key, "")
}

func (a *asyncAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()
	a.signal()

	<-a.done
	return a.backend.Close()
}

// Option configures an Adapter.
type Option func(*options)

type options struct {
	timeout   time.Duration
	queueSize int
}

func buildOptions(opts []Option) options {
	o := options{
		timeout:   10 * time.Second,
		queueSize: constants.AsyncQueueSize,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithQueueSize sets the initial capacity of the async queue. The queue
// grows past it rather than blocking callers.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}
