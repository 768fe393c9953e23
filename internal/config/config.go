package config

import (
	"time"

	"github.com/spf13/viper"
)

type DictionaryProvider string

const (
	DictionaryProviderFunction       DictionaryProvider = "function"       // Hosted lookup function (default)
	DictionaryProviderFreeDictionary DictionaryProvider = "freedictionary" // Public dictionaryapi.dev
)

type (
	Config struct {
		HTTP
		Global
		Database
		Remote
		Dictionary
		Sync
		Lookup
		Profiles
		Tasks
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path     string
		SeedPath string // Bundled word list loaded by the seed command
	}
	Remote struct {
		BaseURL string // Empty means offline-only
		APIKey  string
		Timeout time.Duration
	}
	Dictionary struct {
		Provider    DictionaryProvider
		FunctionURL string
		BaseURL     string // freedictionary endpoint
		Timeout     time.Duration
		RateLimit   float64 // Requests per second
	}
	Sync struct {
		Enabled     bool
		Schedule    string // Cron format: "0 */6 * * *" = every 6 hours
		PageSize    int
		MaxAge      int
		Interval    time.Duration
		MaxRetries  int
		BackoffBase time.Duration
		PageDelay   time.Duration
	}
	Lookup struct {
		DefaultViewerAge int
		CacheSearchLimit int
	}
	Profiles struct {
		PushConcurrency int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
		InlineTimeout   time.Duration
	}
	Log struct {
		Mode string // "development" or "production"
	}
)

// OfflineOnly reports whether no remote backend is configured.
func (c *Config) OfflineOnly() bool {
	return c.Remote.BaseURL == ""
}

func NewConfig() *Config {
	return FromViper(viper.New())
}

// FromViper applies defaults and environment lookups to v and builds a Config.
func FromViper(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("seed_path", DefaultSeedPath)
	v.SetDefault("log_mode", "production")

	// Remote backend defaults
	v.SetDefault("remote_base_url", "")
	v.SetDefault("remote_api_key", "")
	v.SetDefault("remote_timeout", "15s")

	// Dictionary lookup defaults
	v.SetDefault("dictionary_provider", string(DictionaryProviderFunction))
	v.SetDefault("dictionary_function_url", "")
	v.SetDefault("dictionary_base_url", DefaultFreeDictionaryURL)
	v.SetDefault("dictionary_timeout", "20s")
	v.SetDefault("dictionary_rate_limit", 5)

	// Sync defaults
	v.SetDefault("sync_enabled", true)
	v.SetDefault("sync_schedule", "0 */6 * * *") // Every 6 hours
	v.SetDefault("sync_page_size", 50)
	v.SetDefault("sync_max_age", 12)
	v.SetDefault("sync_interval", "2160h") // 90 days
	v.SetDefault("sync_max_retries", 3)
	v.SetDefault("sync_backoff_base", "1s")
	v.SetDefault("sync_page_delay", "200ms")

	v.SetDefault("default_viewer_age", 8)
	v.SetDefault("lookup_cache_search_limit", 20)
	v.SetDefault("profile_push_concurrency", 4)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_inline_timeout", "30s")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			SeedPath: v.GetString("SEED_PATH"),
		},
		Remote: Remote{
			BaseURL: v.GetString("REMOTE_BASE_URL"),
			APIKey:  v.GetString("REMOTE_API_KEY"),
			Timeout: v.GetDuration("REMOTE_TIMEOUT"),
		},
		Dictionary: Dictionary{
			Provider:    DictionaryProvider(v.GetString("DICTIONARY_PROVIDER")),
			FunctionURL: v.GetString("DICTIONARY_FUNCTION_URL"),
			BaseURL:     v.GetString("DICTIONARY_BASE_URL"),
			Timeout:     v.GetDuration("DICTIONARY_TIMEOUT"),
			RateLimit:   v.GetFloat64("DICTIONARY_RATE_LIMIT"),
		},
		Sync: Sync{
			Enabled:     v.GetBool("SYNC_ENABLED"),
			Schedule:    v.GetString("SYNC_SCHEDULE"),
			PageSize:    v.GetInt("SYNC_PAGE_SIZE"),
			MaxAge:      v.GetInt("SYNC_MAX_AGE"),
			Interval:    v.GetDuration("SYNC_INTERVAL"),
			MaxRetries:  v.GetInt("SYNC_MAX_RETRIES"),
			BackoffBase: v.GetDuration("SYNC_BACKOFF_BASE"),
			PageDelay:   v.GetDuration("SYNC_PAGE_DELAY"),
		},
		Lookup: Lookup{
			DefaultViewerAge: v.GetInt("DEFAULT_VIEWER_AGE"),
			CacheSearchLimit: v.GetInt("LOOKUP_CACHE_SEARCH_LIMIT"),
		},
		Profiles: Profiles{
			PushConcurrency: v.GetInt("PROFILE_PUSH_CONCURRENCY"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
			InlineTimeout:   v.GetDuration("TASK_INLINE_TIMEOUT"),
		},
		Log: Log{
			Mode: v.GetString("LOG_MODE"),
		},
	}
}
