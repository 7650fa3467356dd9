package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/app"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/backups"
	"github.com/julianstephens/habitual/internal/cli/settings"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"${config_path}"`
	Backend string `help:"Override the storage backend (sqlite, postgres, badger, charm, memory)."`
	Debug   bool   `help:"Log debug output to stderr."`

	Habit     cli.HabitCmd         `cmd:"" help:"Manage habits."`
	Toggle    cli.ToggleCmd        `cmd:"" help:"Mark or unmark a habit for a day."`
	Entries   cli.EntriesCmd       `cmd:"" help:"Show completion history."`
	Stats     cli.StatsCmd         `cmd:"" help:"Show statistics for a habit."`
	Overview  cli.OverviewCmd      `cmd:"" help:"Show statistics across all habits." default:"1"`
	Category  cli.CategoryCmd      `cmd:"" help:"Manage categories."`
	Settings  settings.SettingsCmd `cmd:"" help:"Show or change application settings."`
	Export    backups.ExportCmd    `cmd:"" help:"Export all data as JSON."`
	Import    backups.ImportCmd    `cmd:"" help:"Import data exported by 'habitual export'."`
	Clear     backups.ClearCmd     `cmd:"" help:"Delete all data."`
	Backup    backups.BackupCmd    `cmd:"" help:"Manage backups."`
	Reminders system.RemindersCmd  `cmd:"" help:"Schedule and test reminders."`
	Keyring   system.KeyringCmd    `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	MCP       system.MCPCmd        `cmd:"" name:"mcp" help:"Serve habit tools to AI assistants over MCP (stdio)."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks, statistics and reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": config.Path(),
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Backend != "" {
		cfg.Backend = CLI.Backend
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: config.Dir()}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	ctx := context.Background()
	appCtx := &cli.Context{Ctx: ctx, Config: cfg}

	// Keyring commands configure the backend, so they must not depend on it.
	if !strings.HasPrefix(kctx.Command(), "keyring") {
		engine, err := app.Open(ctx, cfg)
		if err != nil {
			errors.Fatal(err)
		}
		appCtx.Engine = engine
	}

	runErr := kctx.Run(appCtx)
	if appCtx.Engine != nil {
		if err := appCtx.Engine.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}
	if runErr != nil {
		errors.Fatal(runErr)
	}
}
