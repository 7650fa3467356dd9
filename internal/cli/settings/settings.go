package settings

import (
	"sort"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
)

type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" default:"1" help:"Show current settings."`
	Set  SettingsSetCmd  `cmd:"" help:"Change a setting."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *cli.Context) error {
	kv := models.SettingsToMap(ctx.Engine.Settings())
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx.Header("Current Settings")
	for _, k := range keys {
		ctx.Field(k, kv[k])
	}
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting name: dark_mode, notifications, week_starts_on, default_view or chart_color."`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	patch, err := models.SettingsPatchFromKV(c.Key, c.Value)
	if err != nil {
		return err
	}
	before := ctx.Engine.Settings()
	after := ctx.Engine.UpdateSettings(ctx.Context(), patch)

	ctx.Success("%s = %s", c.Key, models.SettingsToMap(after)[c.Key])
	if before.Notifications != after.Notifications {
		if after.Notifications {
			ctx.Println("  Reminders rescheduled.")
		} else {
			ctx.Println("  All reminders cancelled.")
		}
	}
	return nil
}
