package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/habitual/internal/constants"
)

// SettingsPatchFromKV converts a single key/value pair, as typed on the
// command line, into a SettingsPatch.
func SettingsPatchFromKV(key, value string) (SettingsPatch, error) {
	var patch SettingsPatch
	switch key {
	case constants.SettingDarkMode:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return patch, fmt.Errorf("parsing %s: %w", key, err)
		}
		patch.DarkMode = &b
	case constants.SettingNotifications:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return patch, fmt.Errorf("parsing %s: %w", key, err)
		}
		patch.Notifications = &b
	case constants.SettingWeekStartsOn:
		if value != "sunday" && value != "monday" {
			return patch, fmt.Errorf("%s must be sunday or monday", key)
		}
		patch.WeekStartsOn = &value
	case constants.SettingDefaultView:
		if value != "grid" && value != "list" {
			return patch, fmt.Errorf("%s must be grid or list", key)
		}
		patch.DefaultView = &value
	case constants.SettingChartColor:
		if err := ValidateColor(value); err != nil {
			return patch, err
		}
		patch.ChartColor = &value
	default:
		return patch, fmt.Errorf("unknown setting: %s", key)
	}
	return patch, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingDarkMode:      strconv.FormatBool(settings.DarkMode),
		constants.SettingNotifications: strconv.FormatBool(settings.Notifications),
		constants.SettingWeekStartsOn:  settings.WeekStartsOn,
		constants.SettingDefaultView:   settings.DefaultView,
		constants.SettingChartColor:    settings.ChartColor,
	}
}
