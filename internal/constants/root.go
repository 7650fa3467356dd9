package constants

import "time"

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/habitual"
	Version            = "v0.3.0"

	// DateFormat is the canonical calendar-day format for completion entries (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the reminder time-of-day format (HH:MM)
	TimeFormat = "15:04"

	// Configuration
	ConfigFileName  = "config.yaml"
	DotEnvFileName  = ".env"
	EnvPrefix       = "HABITUAL_"
	DefaultDataDir  = "~/.local/share/habitual"
	ConfigDirEnvVar = "HABITUAL_CONFIG_DIR"

	// DefaultHabitColor is used when a habit is added without a color
	DefaultHabitColor = "#40c463"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitual-"
	BackupFileSuffix = ".json"

	// Notify constants
	NotifierLockfileName   = "habitual-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitual"
	TrayProcessName        = "habitual-tray"
	TraySecretHeader       = "X-Habitual-Secret"

	// Statistics
	StatsCacheTTL        = 5 * time.Minute
	DefaultAverageWeeks  = 12
	DefaultRateWindow    = 30
	ShortRateWindow      = 7
	DefaultTrendDays     = 14
	StatsCacheKeyPrefix  = "stats_"
	StatsCacheMaxEntries = 1 << 12
	MaxStreakLookback    = 365 // days walked back for the current streak

	// Reminder notification copy
	DailyReminderTitle  = "Habit Reminder"
	WeeklyReminderTitle = "Weekly Habit Reminder"
	TestReminderTitle   = "Test Notification"
	DailyReminderBody   = "Time to work on: %s"
	WeeklyReminderBody  = "Don't forget: %s"
	TestReminderBody    = "Notifications are working correctly."
	DelayedTestBody     = "This was scheduled a few seconds ago."
	DefaultTestDelay    = 10 * time.Second
	DeliveryTimeout     = 10 * time.Second

	// Notification delivery
	NotifierTray = "tray"
	NotifierLog  = "log"

	// Reminder backends
	ReminderBackendCron  = "cron"
	ReminderBackendTimer = "timer"

	// DefaultWeeklyReminderDay is used when a weekly habit has no configured weekdays.
	DefaultWeeklyReminderDay = time.Monday
)
