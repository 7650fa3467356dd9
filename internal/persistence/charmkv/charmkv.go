// Package charmkv stores the persisted keys in a Charm KV database, which
// keeps a local Badger copy and syncs it with a Charm server. Each write
// triggers a sync, so this backend is always wrapped in the async adapter.
package charmkv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/kv"
	badger "github.com/dgraph-io/badger/v3"
)

var ErrReadOnly = errors.New("cannot write: database is locked by another process")

type Backend struct {
	kv       *kv.KV
	autoSync bool
	mu       sync.RWMutex
}

// Options configures Open.
type Options struct {
	// Host overrides CHARM_HOST when non-empty.
	Host     string
	AutoSync bool
}

// Open opens the named Charm KV database and pulls remote state once.
func Open(name string, opts Options) (*Backend, error) {
	if opts.Host != "" {
		if err := os.Setenv("CHARM_HOST", opts.Host); err != nil {
			return nil, err
		}
	}

	db, err := kv.OpenWithDefaultsFallback(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv %q: %w", name, err)
	}
	if !db.IsReadOnly() {
		_ = db.Sync()
	}
	return &Backend{kv: db, autoSync: opts.AutoSync}, nil
}

func (b *Backend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, err := b.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(v), true, nil
}

func (b *Backend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.kv.IsReadOnly() {
		return ErrReadOnly
	}
	if err := b.kv.Set([]byte(key), []byte(value)); err != nil {
		return err
	}
	b.syncIfEnabled()
	return nil
}

func (b *Backend) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.kv.IsReadOnly() {
		return ErrReadOnly
	}
	if err := b.kv.Delete([]byte(key)); err != nil {
		return err
	}
	b.syncIfEnabled()
	return nil
}

// Sync pulls and pushes pending changes.
func (b *Backend) Sync() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.kv.IsReadOnly() {
		return nil
	}
	return b.kv.Sync()
}

func (b *Backend) syncIfEnabled() {
	if b.autoSync && !b.kv.IsReadOnly() {
		_ = b.kv.Sync()
	}
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.kv != nil {
		return b.kv.Close()
	}
	return nil
}
