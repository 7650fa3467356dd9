package models

import (
	"encoding/json"

	"github.com/julianstephens/habitual/internal/constants"
)

// Settings represents application-wide settings. There is always exactly one.
type Settings struct {
	DarkMode      bool   `json:"darkMode"`      // dark theme for the UI
	Notifications bool   `json:"notifications"` // whether habit reminders are scheduled
	WeekStartsOn  string `json:"weekStartsOn"`  // "sunday" or "monday"
	DefaultView   string `json:"defaultView"`   // "grid" or "list"
	ChartColor    string `json:"chartColor"`    // hex color for charts
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	DarkMode      *bool
	Notifications *bool
	WeekStartsOn  *string
	DefaultView   *string
	ChartColor    *string
}

func (p SettingsPatch) Apply(s *Settings) {
	if p.DarkMode != nil {
		s.DarkMode = *p.DarkMode
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	if p.WeekStartsOn != nil {
		s.WeekStartsOn = *p.WeekStartsOn
	}
	if p.DefaultView != nil {
		s.DefaultView = *p.DefaultView
	}
	if p.ChartColor != nil {
		s.ChartColor = *p.ChartColor
	}
}

// DefaultSettings returns the settings used on first run.
func DefaultSettings() Settings {
	return Settings{
		DarkMode:      constants.DefaultDarkMode,
		Notifications: constants.DefaultNotifications,
		WeekStartsOn:  constants.DefaultWeekStartsOn,
		DefaultView:   constants.DefaultView,
		ChartColor:    constants.DefaultChartColor,
	}
}

// UnmarshalJSON starts from the defaults so fields missing from older
// records keep their default value instead of the zero value.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type alias Settings
	a := alias(DefaultSettings())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = Settings(a)
	ApplyDefaultSettings(s)
	return nil
}

// ApplyDefaultSettings applies default values to empty settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.WeekStartsOn == "" {
		settings.WeekStartsOn = constants.DefaultWeekStartsOn
	}
	if settings.DefaultView == "" {
		settings.DefaultView = constants.DefaultView
	}
	if settings.ChartColor == "" {
		settings.ChartColor = constants.DefaultChartColor
	}
}
