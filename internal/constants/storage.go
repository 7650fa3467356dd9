package constants

const (
	// Persisted key space. Each collection is an independent record.
	StorageKeyHabits     = "habit_tracker_habits"
	StorageKeyEntries    = "habit_tracker_entries"
	StorageKeyCategories = "habit_tracker_categories"
	StorageKeySettings   = "habit_tracker_settings"

	// Persistence backends
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
	BackendCharm    = "charm"
	BackendMemory   = "memory"

	DefaultBackend      = BackendSQLite
	SQLiteFileName      = "habitual.db"
	BadgerDirName       = "badger"
	CharmDBName         = "habitual"
	KVTableName         = "kv_store"
	AsyncQueueSize      = 64
	PostgresSearchPath  = "habitual"
	PostgresConnEnvName = "HABITUAL_DB_CONNECTION"
)

// StorageKeys lists every persisted record, in hydration order.
var StorageKeys = []string{
	StorageKeyHabits,
	StorageKeyEntries,
	StorageKeyCategories,
	StorageKeySettings,
}
