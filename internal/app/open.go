package app

import (
	"context"
	"errors"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/stats"
	"github.com/julianstephens/habitual/internal/store"
)

// Open builds an engine from configuration: storage, hydration, the stats
// cache, delivery, the reminder backend and backups.
func Open(ctx context.Context, cfg *config.Config) (*Engine, error) {
	adapter, err := cfg.OpenAdapter(ctx)
	if err != nil {
		return nil, err
	}

	s := store.New(adapter, store.WithClock(cfg.Now))
	if err := s.Init(ctx); err != nil {
		return nil, errors.Join(err, adapter.Close())
	}

	deliverer, auth := cfg.NewDelivery(func() bool { return s.GetSettings().Notifications })
	backend, err := cfg.NewReminderBackend(deliverer)
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}

	return New(s,
		stats.NewEngine(s),
		reminder.NewScheduler(backend, auth, deliverer),
		WithBackups(backup.NewManager(cfg.GetDataDir())),
		WithClock(cfg.Now),
	), nil
}
