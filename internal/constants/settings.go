package constants

const (
	// Settings keys accepted by `habitual settings set`
	SettingDarkMode      = "dark_mode"
	SettingNotifications = "notifications"
	SettingWeekStartsOn  = "week_starts_on"
	SettingDefaultView   = "default_view"
	SettingChartColor    = "chart_color"

	// Default Settings Values
	DefaultDarkMode      = false
	DefaultNotifications = true
	DefaultWeekStartsOn  = "monday"
	DefaultView          = "grid"
	DefaultChartColor    = "#40c463"
	DefaultTimezone      = "Local"
)
