package cms

import "github.com/goliatone/go-cms-admin/internal/runtimeconfig"

var (
	ErrStorageDriverUnknown               = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired                 = runtimeconfig.ErrStorageDSNRequired
	ErrMediaProviderUnknown               = runtimeconfig.ErrMediaProviderUnknown
	ErrMediaRootRequired                  = runtimeconfig.ErrMediaRootRequired
	ErrMediaBucketRequired                = runtimeconfig.ErrMediaBucketRequired
	ErrRateLimitInvalid                   = runtimeconfig.ErrRateLimitInvalid
	ErrSlugAttemptsInvalid                = runtimeconfig.ErrSlugAttemptsInvalid
	ErrCommandsDispatcherRequiresCommands = runtimeconfig.ErrCommandsDispatcherRequiresCommands
	ErrLoggingProviderRequired            = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown             = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid                = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid               = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config          = runtimeconfig.Config
	StorageConfig   = runtimeconfig.StorageConfig
	OrderingConfig  = runtimeconfig.OrderingConfig
	SlugConfig      = runtimeconfig.SlugConfig
	RateLimitConfig = runtimeconfig.RateLimitConfig
	MediaConfig     = runtimeconfig.MediaConfig
	S3Config        = runtimeconfig.S3Config
	ActivityConfig  = runtimeconfig.ActivityConfig
	CommandsConfig  = runtimeconfig.CommandsConfig
	Features        = runtimeconfig.Features
	LoggingConfig   = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads the configuration from the environment and optional
// dotenv files.
func LoadConfig(paths ...string) (Config, error) {
	return runtimeconfig.LoadEnv(paths...)
}
