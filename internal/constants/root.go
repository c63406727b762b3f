package constants

import "time"

const (
	AppName            = "weighbit"
	DefaultKeyringUser = "remote-connection"
	KeyringUserIDKey   = "user-id"
	DefaultDataDir     = "~/.config/weighbit"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// SchemaVersion is the version stamped on every persisted snapshot
	SchemaVersion = 1

	// Storage keys inside the local key-value adapter
	SnapshotKey       = "habit-tracker-data"
	OfflineQueueKey   = "weighbit-offline-queue"
	LastSyncKey       = "weighbit-last-sync"
	UndoStackKey      = "weighbit-undo-stack"
	MigratedKeyPrefix = "weighbit-migrated-"

	// Local store file names
	SQLiteFileName = "weighbit.db"
	JSONDirName    = "data"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "weighbit-"

	// DefaultMaxBlobBytes caps the size of a single stored value
	DefaultMaxBlobBytes = 5 * 1024 * 1024

	DefaultSyncInterval  = 5 * time.Minute
	DefaultProbeInterval = 30 * time.Second
	DefaultUndoDepth     = 10

	// Save retry behaviour for user-initiated mutations
	SaveMaxRetries = 2
	SaveRetryDelay = 50 * time.Millisecond

	// Stats windows
	StreakLookbackDays    = 365
	DefaultCompletionDays = 30
	WeekWindowDays        = 7
	MonthWindowDays       = 30
)
