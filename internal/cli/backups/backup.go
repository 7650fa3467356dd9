package backups

import (
	"fmt"
	"path/filepath"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Back up all habit data."`
	List    BackupListCmd    `cmd:"" help:"List backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	path, err := ctx.Engine.Backup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Success("Backup created: %s", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	backups, err := ctx.Engine.Backups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", ctx.Engine.BackupDir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), sizeKB)
	}
	ctx.Printf("\nBackup directory: %s\n", ctx.Engine.BackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		ctx.Warn("This will replace all habits, entries, categories and settings with the backup.")
		ctx.Println("A backup of the current data will be created first.")
		ok, err := ctx.Confirm(fmt.Sprintf("Restore from %s?", c.BackupFile))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	pre, err := ctx.Engine.Restore(ctx.Context(), c.BackupFile)
	if err != nil {
		if pre != "" {
			ctx.Printf("Current data was saved to %s\n", pre)
		}
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Success("Restored from %s", filepath.Base(c.BackupFile))
	ctx.Printf("  Previous data saved to %s\n", filepath.Base(pre))
	return nil
}
