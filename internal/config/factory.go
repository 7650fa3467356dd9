package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/persistence"
	"github.com/julianstephens/habitual/internal/persistence/badgerkv"
	"github.com/julianstephens/habitual/internal/persistence/charmkv"
	"github.com/julianstephens/habitual/internal/persistence/memory"
	"github.com/julianstephens/habitual/internal/persistence/postgres"
	"github.com/julianstephens/habitual/internal/persistence/sqlite"
	"github.com/julianstephens/habitual/internal/reminder"
)

// OpenAdapter opens the configured backend. Local SQL and in-memory
// backends are wrapped synchronously; badger and charm, whose writes may
// block on disk or network, get the async adapter.
func (c *Config) OpenAdapter(ctx context.Context) (persistence.Adapter, error) {
	backend := c.GetBackend()
	logger.Debug("opening storage", "backend", backend, "data_dir", c.GetDataDir())

	switch backend {
	case constants.BackendSQLite:
		b, err := sqlite.Open(ctx, filepath.Join(c.GetDataDir(), constants.SQLiteFileName))
		if err != nil {
			return nil, err
		}
		return persistence.NewSync(b), nil

	case constants.BackendPostgres:
		connStr, err := keyring.ResolveConnectionString()
		if err != nil {
			return nil, fmt.Errorf("postgres backend needs a connection string in %s or the OS keyring: %w",
				constants.PostgresConnEnvName, err)
		}
		b, err := postgres.Open(ctx, connStr)
		if err != nil {
			return nil, err
		}
		return persistence.NewSync(b), nil

	case constants.BackendBadger:
		b, err := badgerkv.Open(filepath.Join(c.GetDataDir(), constants.BadgerDirName))
		if err != nil {
			return nil, err
		}
		return persistence.NewAsync(b), nil

	case constants.BackendCharm:
		b, err := charmkv.Open(constants.CharmDBName, charmkv.Options{Host: c.CharmHost, AutoSync: true})
		if err != nil {
			return nil, err
		}
		return persistence.NewAsync(b), nil

	case constants.BackendMemory:
		return persistence.NewSync(memory.New()), nil

	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// NewReminderBackend builds the configured reminder backend. Both compute
// trigger times in the configured timezone.
func (c *Config) NewReminderBackend(d reminder.Deliverer) (reminder.Backend, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	switch c.GetReminderBackend() {
	case constants.ReminderBackendCron:
		return reminder.NewCronBackend(d, loc), nil
	case constants.ReminderBackendTimer:
		return reminder.NewTimerBackend(d, reminder.SystemClock{Location: loc}), nil
	default:
		return nil, fmt.Errorf("unknown reminder backend: %q", c.ReminderBackend)
	}
}

// NewDelivery returns the configured deliverer and an authorizer that also
// requires enabled to report true.
func (c *Config) NewDelivery(enabled func() bool) (reminder.Deliverer, reminder.Authorizer) {
	if c.GetNotifier() == constants.NotifierLog {
		return notifier.LogDeliverer{}, notifier.SettingsGate{Enabled: enabled, Next: notifier.Always{}}
	}
	tray := notifier.New()
	return tray, notifier.SettingsGate{Enabled: enabled, Next: tray}
}
