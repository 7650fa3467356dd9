// Package memory is an in-process Backend used for tests and for the
// ephemeral "memory" backend.
package memory

import (
	"context"
	"sort"
	"sync"
)

type Backend struct {
	mu   sync.RWMutex
	data map[string]string
}

func New() *Backend {
	return &Backend{data: make(map[string]string)}
}

// NewWithData seeds the backend, e.g. to simulate a previous session.
func NewWithData(data map[string]string) *Backend {
	b := New()
	for k, v := range data {
		b.data[k] = v
	}
	return b
}

func (b *Backend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *Backend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

func (b *Backend) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func (b *Backend) Close() error {
	return nil
}

// Keys returns the stored keys in sorted order.
func (b *Backend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value returns the raw stored value for key.
func (b *Backend) Value(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok
}
