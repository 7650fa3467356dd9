package persistence

import (
	"context"
	"sync"
	"time"
)

type syncAdapter struct {
	backend Backend
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewSync wraps b so each call completes before it returns.
func NewSync(b Backend, opts ...Option) Adapter {
	o := buildOptions(opts)
	return &syncAdapter{backend: b, timeout: o.timeout}
}

func (a *syncAdapter) do(fn func(ctx context.Context) (string, bool, error)) *Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return Completed("", false, ErrClosed)
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	return Completed(fn(ctx))
}

func (a *syncAdapter) Get(key string) *Result {
	return a.do(func(ctx context.Context) (string, bool, error) {
		return a.backend.Get(ctx, key)
	})
}

func (a *syncAdapter) Set(key, value string) *Result {
	return a.do(func(ctx context.Context) (string, bool, error) {
		return "", false, a.backend.Set(ctx, key, value)
	})
}

func (a *syncAdapter) Remove(key string) *Result {
	return a.do(func(ctx context.Context) (string, bool, error) {
		return "", false, a.backend.Remove(ctx, key)
	})
}

func (a *syncAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.backend.Close()
}
