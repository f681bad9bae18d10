package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrStorageDriverUnknown = errors.New("cms config: storage driver must be sqlite or postgres")
var ErrStorageDSNRequired = errors.New("cms config: storage dsn is required")
var ErrMediaProviderUnknown = errors.New("cms config: media provider must be filesystem, s3 or memory")
var ErrMediaRootRequired = errors.New("cms config: media root is required for the filesystem provider")
var ErrMediaBucketRequired = errors.New("cms config: media bucket is required for the s3 provider")
var ErrRateLimitInvalid = errors.New("cms config: rate limit must be positive when enabled")
var ErrCacheTTLInvalid = errors.New("cms config: cache ttl must be zero or positive")
var ErrSlugAttemptsInvalid = errors.New("cms config: slug max attempts must be zero or positive")

// ErrCommandsDispatcherRequiresCommands ensures dispatcher wiring only runs
// when the command layer is enabled.
var ErrCommandsDispatcherRequiresCommands = errors.New("cms config: command dispatcher auto-registration requires commands to be enabled")
var ErrLoggingProviderRequired = errors.New("cms config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("cms config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("cms config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("cms config: logging format is invalid")

// Config aggregates adapter bindings and feature flags for the admin core.
// Every field can be populated from the environment through LoadEnv.
type Config struct {
	Storage   StorageConfig
	Ordering  OrderingConfig
	Slugs     SlugConfig
	RateLimit RateLimitConfig
	Media     MediaConfig
	Activity  ActivityConfig
	Cache     CacheConfig
	Commands  CommandsConfig
	Features  Features
	Logging   LoggingConfig
}

// StorageConfig selects the SQL backend.
type StorageConfig struct {
	Driver string `env:"CMS_STORAGE_DRIVER" env-default:"sqlite"`
	DSN    string `env:"CMS_STORAGE_DSN" env-default:"file:cms.db?cache=shared&_fk=1"`
}

// OrderingConfig controls reorder semantics.
type OrderingConfig struct {
	// RequireCompleteReorder rejects reorders that omit existing records.
	RequireCompleteReorder bool `env:"CMS_ORDERING_REQUIRE_COMPLETE" env-default:"false"`
}

type SlugConfig struct {
	// MaxAttempts bounds the numeric suffix search. Zero keeps the default.
	MaxAttempts int `env:"CMS_SLUGS_MAX_ATTEMPTS" env-default:"0"`
}

// RateLimitConfig sizes the per-actor limiter applied to mutating operations.
type RateLimitConfig struct {
	Enabled   bool          `env:"CMS_RATE_LIMIT_ENABLED" env-default:"true"`
	PerMinute int           `env:"CMS_RATE_LIMIT_PER_MINUTE" env-default:"60"`
	Burst     int           `env:"CMS_RATE_LIMIT_BURST" env-default:"60"`
	IdleTTL   time.Duration `env:"CMS_RATE_LIMIT_IDLE_TTL" env-default:"10m"`
}

// MediaConfig selects the asset store used for reclamation.
type MediaConfig struct {
	Provider string `env:"CMS_MEDIA_PROVIDER" env-default:"filesystem"`
	// BaseURL prefixes stored paths inside rich-text src attributes.
	BaseURL string `env:"CMS_MEDIA_BASE_URL" env-default:"/media/"`
	Root    string `env:"CMS_MEDIA_ROOT" env-default:"media"`
	S3      S3Config
}

// S3Config configures an S3 or S3-compatible bucket.
type S3Config struct {
	Region          string `env:"CMS_MEDIA_S3_REGION" env-default:"us-east-1"`
	Bucket          string `env:"CMS_MEDIA_S3_BUCKET"`
	Prefix          string `env:"CMS_MEDIA_S3_PREFIX"`
	AccessKeyID     string `env:"CMS_MEDIA_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"CMS_MEDIA_S3_SECRET_ACCESS_KEY"`
	Endpoint        string `env:"CMS_MEDIA_S3_ENDPOINT"`
	UsePathStyle    bool   `env:"CMS_MEDIA_S3_PATH_STYLE" env-default:"false"`
}

type ActivityConfig struct {
	Enabled bool   `env:"CMS_ACTIVITY_ENABLED" env-default:"false"`
	Channel string `env:"CMS_ACTIVITY_CHANNEL" env-default:"cms"`
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool          `env:"CMS_COMMANDS_ENABLED" env-default:"false"`
	AutoRegisterDispatcher bool          `env:"CMS_COMMANDS_AUTO_DISPATCHER" env-default:"false"`
	PruneRateLimitsCron    string        `env:"CMS_COMMANDS_PRUNE_CRON"`
	Timeout                time.Duration `env:"CMS_COMMANDS_TIMEOUT" env-default:"30s"`
}

// CacheConfig enables the read-through cache in front of the article and
// blog repositories. A zero DefaultTTL keeps the cache library default.
type CacheConfig struct {
	Enabled    bool          `env:"CMS_CACHE_ENABLED" env-default:"false"`
	DefaultTTL time.Duration `env:"CMS_CACHE_TTL" env-default:"5m"`
}

// Features toggles optional module functionality.
type Features struct {
	Logger bool `env:"CMS_FEATURE_LOGGER" env-default:"false"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `env:"CMS_LOG_PROVIDER" env-default:"console"`
	Level     string   `env:"CMS_LOG_LEVEL" env-default:"info"`
	Format    string   `env:"CMS_LOG_FORMAT"`
	AddSource bool     `env:"CMS_LOG_ADD_SOURCE" env-default:"false"`
	Focus     []string `env:"CMS_LOG_FOCUS" env-separator:","`
}

// DefaultConfig returns the defaults LoadEnv applies when no variable is set.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "file:cms.db?cache=shared&_fk=1",
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			PerMinute: 60,
			Burst:     60,
			IdleTTL:   10 * time.Minute,
		},
		Media: MediaConfig{
			Provider: "filesystem",
			BaseURL:  "/media/",
			Root:     "media",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Activity: ActivityConfig{
			Channel: "cms",
		},
		Cache: CacheConfig{
			DefaultTTL: 5 * time.Minute,
		},
		Commands: CommandsConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch normalize(cfg.Storage.Driver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}
	if cfg.Slugs.MaxAttempts < 0 {
		return ErrSlugAttemptsInvalid
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.PerMinute <= 0 || cfg.RateLimit.Burst < 0) {
		return ErrRateLimitInvalid
	}
	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	switch normalize(cfg.Media.Provider) {
	case "filesystem":
		if strings.TrimSpace(cfg.Media.Root) == "" {
			return ErrMediaRootRequired
		}
	case "s3":
		if strings.TrimSpace(cfg.Media.S3.Bucket) == "" {
			return ErrMediaBucketRequired
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %s", ErrMediaProviderUnknown, cfg.Media.Provider)
	}
	if cfg.Commands.AutoRegisterDispatcher && !cfg.Commands.Enabled {
		return ErrCommandsDispatcherRequiresCommands
	}
	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
