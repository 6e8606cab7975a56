package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Single fixed owner, no tokens (local dev)
	AuthModeToken AuthMode = "token" // Bearer tokens resolved against the users table
)

// DefaultDatabasePath is the default path for the service database.
const DefaultDatabasePath = "./readinglists.db"

type (
	Config struct {
		HTTP
		Database
		Limits
		Purge
		Tasks
		Auth
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
		// ReadPath optionally points reads at a replica; empty reuses the
		// write connection.
		ReadPath string
	}
	Limits struct {
		MaxListsPerUser   int // 0 = unlimited
		MaxEntriesPerList int // 0 = unlimited
	}
	Purge struct {
		Enabled         bool
		Schedule        string // Cron format: "30 3 * * *" = daily at 03:30
		SortkeySchedule string // Cron format: "0 4 * * 0" = weekly
		RetentionDays   int    // Days soft-deleted rows stay queryable
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		Mode       AuthMode
		BcryptCost int
		// DevOwnerID is the owner bound to every request in "none" mode.
		DevOwnerID int64
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_read_path", "")

	// Limit defaults match the production deployment of the original
	// service; zero disables a cap.
	v.SetDefault("max_lists_per_user", 100)
	v.SetDefault("max_entries_per_list", 1000)

	// Purge defaults
	v.SetDefault("purge_enabled", true)
	v.SetDefault("purge_schedule", "30 3 * * *")
	v.SetDefault("purge_sortkey_schedule", "0 4 * * 0")
	v.SetDefault("purge_retention_days", 30)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_dev_owner_id", 0)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			ReadPath: v.GetString("DATABASE_READ_PATH"),
		},
		Limits: Limits{
			MaxListsPerUser:   v.GetInt("MAX_LISTS_PER_USER"),
			MaxEntriesPerList: v.GetInt("MAX_ENTRIES_PER_LIST"),
		},
		Purge: Purge{
			Enabled:         v.GetBool("PURGE_ENABLED"),
			Schedule:        v.GetString("PURGE_SCHEDULE"),
			SortkeySchedule: v.GetString("PURGE_SORTKEY_SCHEDULE"),
			RetentionDays:   v.GetInt("PURGE_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			Mode:       AuthMode(v.GetString("AUTH_MODE")),
			BcryptCost: v.GetInt("AUTH_BCRYPT_COST"),
			DevOwnerID: v.GetInt64("AUTH_DEV_OWNER_ID"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}

// Retention converts the purge retention to a duration.
func (p Purge) Retention() time.Duration {
	return time.Duration(p.RetentionDays) * 24 * time.Hour
}
