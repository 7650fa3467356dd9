package backups

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/app"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/models"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{Backend: "memory", DataDir: t.TempDir(), ReminderBackend: "timer", Notifier: "log", Timezone: "UTC"}
	engine, err := app.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	out := &bytes.Buffer{}
	return &cli.Context{Ctx: context.Background(), Engine: engine, Config: cfg, Out: out}, out
}

func addHabit(t *testing.T, ctx *cli.Context, name string) models.Habit {
	t.Helper()
	h, err := ctx.Engine.AddHabit(context.Background(), models.NewHabit{Name: name})
	require.NoError(t, err)
	return h
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out := setupTestContext(t)

	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No backups found")
	assert.Contains(t, out.String(), ctx.Engine.BackupDir())

	addHabit(t, ctx, "Read")
	out.Reset()
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Backup created: habitual-")

	out.Reset()
	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "1 total")
	assert.Contains(t, out.String(), ".json")
}

func TestBackupRestoreCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	addHabit(t, ctx, "Read")
	path, err := ctx.Engine.Backup()
	require.NoError(t, err)
	addHabit(t, ctx, "Walk")

	ctx.In = strings.NewReader("no\n")
	require.NoError(t, (&BackupRestoreCmd{BackupFile: filepath.Base(path)}).Run(ctx))
	assert.Contains(t, out.String(), "Restore cancelled")
	assert.Len(t, ctx.Engine.Habits(), 2)

	ctx.In = strings.NewReader("y\n")
	require.NoError(t, (&BackupRestoreCmd{BackupFile: filepath.Base(path)}).Run(ctx))
	require.Len(t, ctx.Engine.Habits(), 1)
	assert.Equal(t, "Read", ctx.Engine.Habits()[0].Name)

	assert.Error(t, (&BackupRestoreCmd{BackupFile: "missing.json", Yes: true}).Run(ctx))
}

func TestExportImport(t *testing.T) {
	ctx, out := setupTestContext(t)
	h := addHabit(t, ctx, "Read")
	_, err := ctx.Engine.ToggleEntry(h.ID, "2024-03-15")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, (&ExportCmd{Output: file}).Run(ctx))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"habits"`)

	out.Reset()
	require.NoError(t, (&ExportCmd{}).Run(ctx))
	assert.Contains(t, out.String(), h.ID)

	require.NoError(t, (&ClearCmd{Yes: true}).Run(ctx))
	assert.Empty(t, ctx.Engine.Habits())

	require.NoError(t, (&ImportCmd{File: file, Yes: true}).Run(ctx))
	require.Len(t, ctx.Engine.Habits(), 1)
	assert.True(t, ctx.Engine.Entries(h.ID)["2024-03-15"])

	backups, err := ctx.Engine.Backups()
	require.NoError(t, err)
	assert.Len(t, backups, 1, "import backs up the current state first")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0600))
	assert.Error(t, (&ImportCmd{File: bad, Yes: true}).Run(ctx))
	assert.Len(t, ctx.Engine.Habits(), 1)

	assert.Error(t, (&ImportCmd{File: filepath.Join(t.TempDir(), "none.json"), Yes: true}).Run(ctx))
}

func TestClearCmdConfirm(t *testing.T) {
	ctx, _ := setupTestContext(t)
	addHabit(t, ctx, "Read")

	ctx.In = strings.NewReader("\n")
	require.NoError(t, (&ClearCmd{}).Run(ctx))
	assert.Len(t, ctx.Engine.Habits(), 1)

	ctx.In = strings.NewReader("y\n")
	require.NoError(t, (&ClearCmd{}).Run(ctx))
	assert.Empty(t, ctx.Engine.Habits())
}
