package di

import (
	"context"
	"fmt"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-admin/internal/adapters/storage"
	"github.com/goliatone/go-cms-admin/internal/assets"
	"github.com/goliatone/go-cms-admin/internal/content"
	"github.com/goliatone/go-cms-admin/internal/dispatch"
	"github.com/goliatone/go-cms-admin/internal/entities"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/internal/logging/console"
	"github.com/goliatone/go-cms-admin/internal/logging/gologger"
	"github.com/goliatone/go-cms-admin/internal/ordering"
	"github.com/goliatone/go-cms-admin/internal/permissions"
	"github.com/goliatone/go-cms-admin/internal/ratelimit"
	"github.com/goliatone/go-cms-admin/internal/runtimeconfig"
	"github.com/goliatone/go-cms-admin/internal/slugs"
	"github.com/goliatone/go-cms-admin/internal/users"
	"github.com/goliatone/go-cms-admin/pkg/activity"
	"github.com/goliatone/go-cms-admin/pkg/activity/usersink"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// Container wires the admin core from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	bunDB          *bun.DB
	ownsDB         bool
	loggerProvider interfaces.LoggerProvider
	assetStore     interfaces.AssetStore
	limiter        ratelimit.Limiter
	oracle         interfaces.PermissionOracle
	activityHooks  activity.Hooks
	registry       *entities.Registry
	cacheService   repocache.CacheService
	keySerializer  repocache.KeySerializer
	readCache      *content.ReadCache

	store      *storage.Store
	sequencer  *ordering.Sequencer
	slugs      *slugs.Generator
	policy     *permissions.Policy
	reclaimer  *assets.Reclaimer
	emitter    *activity.Emitter
	dispatcher dispatch.Service
	articles   content.ArticleService
	blogs      content.BlogService
	users      users.Service
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB injects an open database. The container never closes it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithLoggerProvider overrides the provider selected from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithAssetStore overrides the media backend selected from Config.Media.
func WithAssetStore(store interfaces.AssetStore) Option {
	return func(c *Container) {
		c.assetStore = store
	}
}

func WithRateLimiter(limiter ratelimit.Limiter) Option {
	return func(c *Container) {
		c.limiter = limiter
	}
}

// WithPermissionOracle replaces the context based capability checks.
func WithPermissionOracle(oracle interfaces.PermissionOracle) Option {
	return func(c *Container) {
		c.oracle = oracle
	}
}

// WithAuthProvider authorizes staff through the host session layer.
func WithAuthProvider(provider interfaces.AuthProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.oracle = permissions.AuthOracle{Provider: provider}
		}
	}
}

// WithCache supplies the read cache service. It is only used when
// Config.Cache.Enabled is set.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithActivityHooks appends hooks notified of every successful mutation.
func WithActivityHooks(hooks ...activity.Hook) Option {
	return func(c *Container) {
		c.activityHooks = append(c.activityHooks, hooks...)
	}
}

// WithActivitySink forwards activity to a go-users sink.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		if sink != nil {
			c.activityHooks = append(c.activityHooks, usersink.Hook{Sink: sink})
		}
	}
}

// WithRegistry replaces the default article/blog/user registry.
func WithRegistry(registry *entities.Registry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureDatabase(); err != nil {
		return nil, err
	}
	if err := c.configureAssetStore(context.Background()); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureCache(); err != nil {
		c.Close()
		return nil, err
	}
	c.configureServices()

	logging.ModuleLogger(c.loggerProvider, "cms.container").Info("container.configured",
		"storage", c.bunDB.Dialect().Name().String(),
		"media", normalize(cfg.Media.Provider),
		"rate_limit", cfg.RateLimit.Enabled,
		"cache", c.readCache != nil,
		"activity", c.emitter.Enabled(),
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	if !c.Config.Features.Logger {
		c.loggerProvider = console.NewProvider(console.Options{})
		return nil
	}

	cfg := c.Config.Logging
	switch normalize(cfg.Provider) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{Focus: cfg.Focus}
		if level, ok := console.ParseLevel(cfg.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureDatabase() error {
	if c.bunDB != nil {
		return nil
	}
	db, err := OpenDatabase(c.Config.Storage)
	if err != nil {
		return err
	}
	c.bunDB = db
	c.ownsDB = true
	return nil
}

func (c *Container) configureAssetStore(ctx context.Context) error {
	if c.assetStore != nil {
		return nil
	}
	media := c.Config.Media
	switch normalize(media.Provider) {
	case "s3":
		store, err := assets.NewS3Store(ctx, assets.S3Config{
			Region:          media.S3.Region,
			Bucket:          media.S3.Bucket,
			Prefix:          media.S3.Prefix,
			AccessKeyID:     media.S3.AccessKeyID,
			SecretAccessKey: media.S3.SecretAccessKey,
			Endpoint:        media.S3.Endpoint,
			UsePathStyle:    media.S3.UsePathStyle,
		})
		if err != nil {
			return err
		}
		c.assetStore = store
	case "memory":
		c.assetStore = assets.NewMemoryStore()
	default:
		store, err := assets.NewFilesystemStore(media.Root)
		if err != nil {
			return fmt.Errorf("di: media root: %w", err)
		}
		c.assetStore = store
	}
	return nil
}

func (c *Container) configureCache() error {
	if !c.Config.Cache.Enabled {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.DefaultTTL > 0 {
			cfg.TTL = c.Config.Cache.DefaultTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: cache service: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	c.readCache = content.NewReadCache(c.cacheService, c.keySerializer)
	return nil
}

func (c *Container) configureServices() {
	provider := c.loggerProvider
	cfg := c.Config

	if c.registry == nil {
		c.registry = entities.DefaultRegistry()
	}
	if c.limiter == nil {
		if cfg.RateLimit.Enabled {
			c.limiter = ratelimit.NewPerActor(ratelimit.Config{
				PerMinute: cfg.RateLimit.PerMinute,
				Burst:     cfg.RateLimit.Burst,
				IdleTTL:   cfg.RateLimit.IdleTTL,
			})
		} else {
			c.limiter = ratelimit.Unlimited{}
		}
	}

	c.store = storage.NewStore(c.bunDB, storage.WithLogger(logging.StorageLogger(provider)))
	c.sequencer = ordering.NewSequencer(c.store,
		ordering.WithLogger(logging.OrderingLogger(provider)),
		ordering.WithRequireComplete(cfg.Ordering.RequireCompleteReorder),
	)
	c.slugs = slugs.NewGenerator(slugs.WithMaxAttempts(cfg.Slugs.MaxAttempts))
	c.policy = permissions.NewPolicy(c.oracle)
	c.reclaimer = assets.NewReclaimer(c.registry, c.store, c.assetStore,
		assets.WithLogger(logging.AssetsLogger(provider)),
		assets.WithMediaURL(cfg.Media.BaseURL),
	)
	c.emitter = activity.NewEmitter(c.activityHooks, activity.Config{
		Enabled: cfg.Activity.Enabled,
		Channel: cfg.Activity.Channel,
	})

	dispatchOpts := []dispatch.ServiceOption{
		dispatch.WithPolicy(c.policy),
		dispatch.WithRateLimiter(c.limiter),
		dispatch.WithReclaimer(c.reclaimer),
		dispatch.WithSlugGenerator(c.slugs),
		dispatch.WithActivityEmitter(c.emitter),
		dispatch.WithLogger(logging.DispatchLogger(provider)),
	}
	contentOpts := []content.ServiceOption{
		content.WithSlugGenerator(c.slugs),
		content.WithReclaimer(c.reclaimer),
		content.WithActivityEmitter(c.emitter),
		content.WithLogger(logging.ContentLogger(provider)),
	}
	if c.readCache != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithCacheInvalidator(c.readCache))
		contentOpts = append(contentOpts, content.WithReadCache(c.readCache))
	}
	c.dispatcher = dispatch.NewService(c.registry, c.store, c.sequencer, dispatchOpts...)

	c.articles = content.NewArticleService(c.store, c.sequencer, contentOpts...)
	c.blogs = content.NewBlogService(c.store, c.sequencer, contentOpts...)
	c.users = users.NewService(c.store,
		users.WithActivityEmitter(c.emitter),
		users.WithLogger(logging.UsersLogger(provider)),
	)
}

// Close releases the database when the container opened it.
func (c *Container) Close() error {
	if c == nil || !c.ownsDB || c.bunDB == nil {
		return nil
	}
	return c.bunDB.Close()
}

func (c *Container) DB() *bun.DB { return c.bunDB }

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) AssetStore() interfaces.AssetStore { return c.assetStore }

// RateLimiter exposes the limiter shared by every dispatcher call.
func (c *Container) RateLimiter() ratelimit.Limiter { return c.limiter }

func (c *Container) Registry() *entities.Registry { return c.registry }

// ReadCache is nil unless Config.Cache.Enabled is set.
func (c *Container) ReadCache() *content.ReadCache { return c.readCache }

func (c *Container) Store() *storage.Store { return c.store }

func (c *Container) Sequencer() *ordering.Sequencer { return c.sequencer }

func (c *Container) Reclaimer() *assets.Reclaimer { return c.reclaimer }

func (c *Container) ActivityEmitter() *activity.Emitter { return c.emitter }

// Dispatcher exposes the generic entity operation service.
func (c *Container) Dispatcher() dispatch.Service { return c.dispatcher }

func (c *Container) ArticleService() content.ArticleService { return c.articles }

func (c *Container) BlogService() content.BlogService { return c.blogs }

func (c *Container) UserService() users.Service { return c.users }

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
