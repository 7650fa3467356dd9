// Package config loads habitual's settings from the YAML config file, an
// optional .env file and HABITUAL_* environment variables, in increasing
// order of precedence. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/utils"
)

type Config struct {
	// Backend selects persistence: sqlite (default), postgres, badger, charm
	// or memory.
	Backend string `yaml:"backend,omitempty"`

	// DataDir holds the sqlite file, the badger directory and backups.
	// Supports ~ expansion.
	DataDir string `yaml:"data_dir,omitempty"`

	// CharmHost overrides the Charm server for the charm backend.
	CharmHost string `yaml:"charm_host,omitempty"`

	// ReminderBackend is cron (default) or timer.
	ReminderBackend string `yaml:"reminder_backend,omitempty"`

	// Notifier is tray (default), which posts to the companion tray app, or
	// log, which only writes reminders to the log.
	Notifier string `yaml:"notifier,omitempty"`

	// Timezone is an IANA name or "Local".
	Timezone string `yaml:"timezone,omitempty"`

	Debug bool `yaml:"debug,omitempty"`
}

// Dir is the configuration directory, ~/.config/habitual unless
// HABITUAL_CONFIG_DIR or XDG_CONFIG_HOME say otherwise.
func Dir() string {
	if dir := os.Getenv(constants.ConfigDirEnvVar); dir != "" {
		return ExpandPath(dir)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, constants.AppName)
	}
	return ExpandPath(constants.DefaultConfigDir)
}

// Path is the config file path inside Dir.
func Path() string {
	return filepath.Join(Dir(), constants.ConfigFileName)
}

// Load reads the config file at path (a missing file yields defaults), then
// applies .env and environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(constants.DotEnvFileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", constants.DotEnvFileName, err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("BACKEND"); ok {
		c.Backend = v
	}
	if v, ok := lookupEnv("DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := lookupEnv("CHARM_HOST"); ok {
		c.CharmHost = v
	}
	if v, ok := lookupEnv("REMINDER_BACKEND"); ok {
		c.ReminderBackend = v
	}
	if v, ok := lookupEnv("NOTIFIER"); ok {
		c.Notifier = v
	}
	if v, ok := lookupEnv("TIMEZONE"); ok {
		c.Timezone = v
	}
	if v, ok := lookupEnv("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", constants.EnvPrefix, err)
		}
		c.Debug = b
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(constants.EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Validate checks the enumerated fields and the timezone.
func (c *Config) Validate() error {
	switch c.GetBackend() {
	case constants.BackendSQLite, constants.BackendPostgres, constants.BackendBadger,
		constants.BackendCharm, constants.BackendMemory:
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	switch c.GetReminderBackend() {
	case constants.ReminderBackendCron, constants.ReminderBackendTimer:
	default:
		return fmt.Errorf("unknown reminder backend: %q", c.ReminderBackend)
	}
	switch c.GetNotifier() {
	case constants.NotifierTray, constants.NotifierLog:
	default:
		return fmt.Errorf("unknown notifier: %q", c.Notifier)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Save writes the config as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return constants.DefaultBackend
	}
	return strings.ToLower(c.Backend)
}

func (c *Config) GetReminderBackend() string {
	if c.ReminderBackend == "" {
		return constants.ReminderBackendCron
	}
	return strings.ToLower(c.ReminderBackend)
}

func (c *Config) GetNotifier() string {
	if c.Notifier == "" {
		return constants.NotifierTray
	}
	return strings.ToLower(c.Notifier)
}

// GetDataDir returns the data directory with ~ expanded.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return ExpandPath(constants.DefaultDataDir)
	}
	return ExpandPath(c.DataDir)
}

// Location resolves Timezone, defaulting to the local zone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = constants.DefaultTimezone
	}
	return utils.LoadLocation(tz)
}

// Now is the current time in the configured zone.
func (c *Config) Now() time.Time {
	loc, err := c.Location()
	if err != nil {
		return time.Now()
	}
	return time.Now().In(loc)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
