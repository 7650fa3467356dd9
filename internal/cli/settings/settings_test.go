package settings

import (
	"bytes"
	"context"
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

func TestSettingsShowCmd(t *testing.T) {
	ctx, out := setupTestContext(t)

	require.NoError(t, (&SettingsShowCmd{}).Run(ctx))
	for _, want := range []string{"chart_color", "dark_mode", "default_view", "notifications", "week_starts_on", "monday"} {
		assert.Contains(t, out.String(), want)
	}
}

func TestSettingsSetCmd(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
		check      func(t *testing.T, s models.Settings)
	}{
		{key: "dark_mode", value: "true", check: func(t *testing.T, s models.Settings) { assert.True(t, s.DarkMode) }},
		{key: "week_starts_on", value: "sunday", check: func(t *testing.T, s models.Settings) { assert.Equal(t, "sunday", s.WeekStartsOn) }},
		{key: "default_view", value: "list", check: func(t *testing.T, s models.Settings) { assert.Equal(t, "list", s.DefaultView) }},
		{key: "chart_color", value: "#aabbcc", check: func(t *testing.T, s models.Settings) { assert.Equal(t, "#aabbcc", s.ChartColor) }},
		{key: "dark_mode", value: "sometimes", wantErr: true},
		{key: "week_starts_on", value: "friday", wantErr: true},
		{key: "chart_color", value: "green", wantErr: true},
		{key: "font", value: "mono", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			ctx, _ := setupTestContext(t)
			err := (&SettingsSetCmd{Key: tt.key, Value: tt.value}).Run(ctx)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, models.DefaultSettings(), ctx.Engine.Settings())
				return
			}
			require.NoError(t, err)
			tt.check(t, ctx.Engine.Settings())
		})
	}
}

func TestSettingsSetNotifications(t *testing.T) {
	ctx, out := setupTestContext(t)
	h, err := ctx.Engine.AddHabit(context.Background(), models.NewHabit{Name: "Read", ReminderTime: models.StringPtr("08:00")})
	require.NoError(t, err)
	require.NotNil(t, h.NotificationID)

	require.NoError(t, (&SettingsSetCmd{Key: "notifications", Value: "false"}).Run(ctx))
	assert.Contains(t, out.String(), "cancelled")
	assert.Empty(t, ctx.Engine.Scheduled())
	h, _ = ctx.Engine.Habit(h.ID)
	assert.Nil(t, h.NotificationID)

	out.Reset()
	require.NoError(t, (&SettingsSetCmd{Key: "notifications", Value: "true"}).Run(ctx))
	assert.Contains(t, out.String(), "rescheduled")
	assert.Len(t, ctx.Engine.Scheduled(), 1)
}
