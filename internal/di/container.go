package di

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-sitemap/internal/builder"
	sitemaphttp "github.com/goliatone/go-sitemap/internal/http"
	"github.com/goliatone/go-sitemap/internal/locales"
	"github.com/goliatone/go-sitemap/internal/logging"
	"github.com/goliatone/go-sitemap/internal/logging/gologger"
	"github.com/goliatone/go-sitemap/internal/revalidate"
	internalroutes "github.com/goliatone/go-sitemap/internal/routes"
	"github.com/goliatone/go-sitemap/internal/runtimeconfig"
	"github.com/goliatone/go-sitemap/internal/sources"
	"github.com/goliatone/go-sitemap/internal/watcher"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

// ErrDatabaseSourceRequiresDB rejects configurations that enable the database
// source without supplying a handle through WithDB.
var ErrDatabaseSourceRequiresDB = errors.New("di: database source requires a bun.DB, use WithDB")

// Container wires the sitemap module from configuration: resolver, content
// sources, registry, builder, persister, coordinator, and the optional
// watcher and HTTP surfaces. Construction is eager so misconfiguration
// surfaces before the first document is requested.
type Container struct {
	Config runtimeconfig.Config

	provider interfaces.LoggerProvider

	bunDB         *bun.DB
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	contentFS     fs.FS
	clock         func() time.Time
	urlManager    *urlkit.RouteManager
	extraSources  []interfaces.ContentSource

	resolver    *locales.Resolver
	memory      *sources.MemorySource
	source      interfaces.ContentSource
	registry    internalroutes.Registry
	builder     *builder.Builder
	persister   *builder.Persister
	coordinator *revalidate.Coordinator
	watcher     *watcher.Watcher
	api         *sitemaphttp.API

	closed bool
}

// Option customises container construction.
type Option func(*Container)

// WithLogger injects a logger provider. Without one, the provider named in
// the logging config is constructed (or logging stays silent for "noop").
func WithLogger(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.provider = provider
		}
	}
}

// WithSource appends a custom content source. Sources added here merge after
// the config-enabled adapters, so their entries win path collisions.
func WithSource(source interfaces.ContentSource) Option {
	return func(c *Container) {
		if source != nil {
			c.extraSources = append(c.extraSources, source)
		}
	}
}

// WithDB injects the bun database handle required when the database source
// is enabled.
func WithDB(db *bun.DB) Option {
	return func(c *Container) {
		if db != nil {
			c.bunDB = db
		}
	}
}

// WithCache wraps the database source repository with the provided cache
// service. Ignored unless the database source is enabled.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithContentFS overrides the filesystem backing the markdown source. The
// default is os.DirFS over the configured content directory.
func WithContentFS(fsys fs.FS) Option {
	return func(c *Container) {
		if fsys != nil {
			c.contentFS = fsys
		}
	}
}

// WithClock pins the clock stamped on documents and revalidation events.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithURLManager replaces the urlkit route manager derived from the locale
// set. Takes precedence over Navigation.RouteConfig.
func WithURLManager(manager *urlkit.RouteManager) Option {
	return func(c *Container) {
		if manager != nil {
			c.urlManager = manager
		}
	}
}

// NewContainer validates cfg and assembles the module graph. The returned
// container owns the coordinator and watcher lifecycles; callers must Close it.
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

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureResolver(); err != nil {
		return nil, err
	}
	if err := c.configureSources(); err != nil {
		return nil, err
	}
	if err := c.configureRegistry(); err != nil {
		return nil, err
	}
	if err := c.configureBuilder(); err != nil {
		return nil, err
	}
	if err := c.configureCoordinator(); err != nil {
		return nil, err
	}
	if err := c.configureWatcher(); err != nil {
		c.shutdown()
		return nil, err
	}
	if err := c.configureHTTP(); err != nil {
		c.shutdown()
		return nil, err
	}

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.provider != nil {
		return nil
	}

	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "noop":
		// Leave the provider nil; module loggers fall back to no-op.
		return nil
	case "", "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure logging: %w", err)
		}
		c.provider = provider
		return nil
	default:
		return fmt.Errorf("%w: %s", runtimeconfig.ErrLoggingProviderUnknown, logCfg.Provider)
	}
}

func (c *Container) configureResolver() error {
	opts := []locales.Option{}
	switch {
	case c.urlManager != nil:
		opts = append(opts, locales.WithURLManager(c.urlManager))
	case c.Config.Navigation.RouteConfig != nil:
		manager := urlkit.NewRouteManager(c.Config.Navigation.RouteConfig)
		c.urlManager = manager
		opts = append(opts, locales.WithURLManager(manager))
	}

	resolver, err := locales.NewResolver(c.Config.Site.Locales, c.Config.Site.DefaultLocale, opts...)
	if err != nil {
		return err
	}
	c.resolver = resolver
	return nil
}

// configureSources assembles the content source chain. The memory source is
// always present so hosts can push routes programmatically; config-enabled
// adapters and WithSource additions merge behind it in declaration order,
// later adapters winning path collisions.
func (c *Container) configureSources() error {
	logger := logging.SourcesLogger(c.provider)

	c.memory = sources.NewMemorySource()
	adapters := []interfaces.ContentSource{c.memory}

	if mdCfg := c.Config.Sources.Markdown; mdCfg.Enabled {
		fsys := c.contentFS
		if fsys == nil {
			fsys = os.DirFS(mdCfg.ContentDir)
		}
		markdown, err := sources.NewMarkdownSource(fsys, sources.MarkdownConfig{
			Extensions: mdCfg.Extensions,
		}, logger)
		if err != nil {
			return fmt.Errorf("di: configure markdown source: %w", err)
		}
		adapters = append(adapters, markdown)
	}

	if feedCfg := c.Config.Sources.Feed; feedCfg.Enabled {
		feed, err := sources.NewHTTPSource(sources.HTTPConfig{
			Endpoint: feedCfg.Endpoint,
			Timeout:  feedCfg.Timeout,
		}, nil, logger)
		if err != nil {
			return fmt.Errorf("di: configure feed source: %w", err)
		}
		adapters = append(adapters, feed)
	}

	if c.Config.Sources.Database.Enabled {
		if c.bunDB == nil {
			return ErrDatabaseSourceRequiresDB
		}
		if c.cacheService != nil && c.keySerializer != nil {
			adapters = append(adapters, sources.NewBunSourceWithCache(c.bunDB, c.cacheService, c.keySerializer))
		} else {
			adapters = append(adapters, sources.NewBunSource(c.bunDB))
		}
	}

	adapters = append(adapters, c.extraSources...)

	if len(adapters) == 1 {
		c.source = adapters[0]
		return nil
	}
	c.source = sources.NewCompositeSource(logger, adapters...)
	return nil
}

func (c *Container) configureRegistry() error {
	// Validate already rejected unparseable values; an empty frequency lets
	// the registry apply its own default.
	frequency, _ := routes.ParseChangeFrequency(c.Config.Site.DefaultChangeFrequency)

	registry, err := internalroutes.NewRegistry(internalroutes.Config{
		StaticPaths:       c.Config.Site.StaticPaths,
		LocaleStaticPaths: c.Config.Site.LocaleStaticPaths,
		DefaultFrequency:  frequency,
		DefaultPriority:   c.Config.Site.DefaultPriority,
		SourceTimeout:     c.Config.Generator.SourceTimeout,
	}, internalroutes.Dependencies{
		Resolver: c.resolver,
		Source:   c.source,
		Logger:   logging.RegistryLogger(c.provider),
	})
	if err != nil {
		return err
	}
	c.registry = registry
	return nil
}

func (c *Container) configureBuilder() error {
	b, err := builder.New(builder.Config{
		SiteTitle:       c.Config.Site.Title,
		SiteDescription: c.Config.Site.Description,
		GenerateRobots:  c.Config.Generator.GenerateRobots,
		GenerateFeeds:   c.Config.Generator.GenerateFeeds,
		MaxFeedItems:    c.Config.Generator.MaxFeedItems,
		DisallowedPaths: c.Config.Site.DisallowedPaths,
	}, builder.Dependencies{
		Resolver: c.resolver,
		Registry: c.registry,
		Logger:   logging.BuilderLogger(c.provider),
		Now:      c.clock,
	})
	if err != nil {
		return err
	}
	c.builder = b
	return nil
}

func (c *Container) configureCoordinator() error {
	var writer builder.ArtifactWriter
	if dir := strings.TrimSpace(c.Config.Generator.OutputDir); dir != "" {
		fsWriter, err := builder.NewFSWriter(dir)
		if err != nil {
			return fmt.Errorf("di: configure artifact writer: %w", err)
		}
		writer = fsWriter
	}
	c.persister = builder.NewPersister(writer, c.Config.Site.DefaultLocale)

	coordinator, err := revalidate.New(revalidate.Config{
		CoalesceWindow: c.Config.Revalidate.CoalesceWindow,
		BuildTimeout:   c.Config.Generator.BuildTimeout,
		Workers:        c.Config.Generator.Workers,
		QueueSize:      c.Config.Revalidate.QueueSize,
	}, revalidate.Dependencies{
		Resolver:  c.resolver,
		Builder:   c.builder,
		Persister: c.persister,
		Logger:    logging.RevalidateLogger(c.provider),
		Now:       c.clock,
	})
	if err != nil {
		return err
	}
	c.coordinator = coordinator
	return nil
}

func (c *Container) configureWatcher() error {
	watchCfg := c.Config.Watcher
	if !watchCfg.Enabled {
		return nil
	}

	w, err := watcher.New(watcher.Config{
		Path:           watchCfg.Path,
		Extensions:     watchCfg.Extensions,
		DebounceWindow: watchCfg.DebounceWindow,
	}, watcher.Dependencies{
		Queue:    c.coordinator,
		Resolver: c.resolver,
		Logger:   logging.WatcherLogger(c.provider),
		Now:      c.clock,
	})
	if err != nil {
		return fmt.Errorf("di: configure watcher: %w", err)
	}
	c.watcher = w
	return nil
}

func (c *Container) configureHTTP() error {
	httpCfg := c.Config.HTTP
	if !httpCfg.Enabled {
		return nil
	}

	api, err := sitemaphttp.NewAPI(
		sitemaphttp.WithService(c.coordinator),
		sitemaphttp.WithBasePath(httpCfg.BasePath),
		sitemaphttp.WithDefaultLocale(c.Config.Site.DefaultLocale),
		sitemaphttp.WithLogger(logging.HTTPLogger(c.provider)),
	)
	if err != nil {
		return fmt.Errorf("di: configure http api: %w", err)
	}
	c.api = api
	return nil
}

// Resolver exposes the locale resolver.
func (c *Container) Resolver() *locales.Resolver {
	return c.resolver
}

// MemorySource exposes the always-present in-memory source so hosts can push
// route entries programmatically.
func (c *Container) MemorySource() *sources.MemorySource {
	return c.memory
}

// ContentSource exposes the merged content source chain.
func (c *Container) ContentSource() interfaces.ContentSource {
	return c.source
}

// Registry exposes the route registry.
func (c *Container) Registry() internalroutes.Registry {
	return c.registry
}

// Builder exposes the document builder.
func (c *Container) Builder() *builder.Builder {
	return c.builder
}

// Persister exposes the artifact persister.
func (c *Container) Persister() *builder.Persister {
	return c.persister
}

// Coordinator exposes the revalidation coordinator.
func (c *Container) Coordinator() *revalidate.Coordinator {
	return c.coordinator
}

// Watcher exposes the filesystem watcher, nil unless enabled.
func (c *Container) Watcher() *watcher.Watcher {
	return c.watcher
}

// API exposes the HTTP surface, nil unless enabled.
func (c *Container) API() *sitemaphttp.API {
	return c.api
}

// LoggerProvider exposes the configured provider, nil when logging is no-op.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.provider
}

// Logger returns the root module logger.
func (c *Container) Logger() interfaces.Logger {
	return logging.ModuleLogger(c.provider, "")
}

// Close stops the watcher and coordinator. Idempotent.
func (c *Container) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	return c.shutdown()
}

func (c *Container) shutdown() error {
	var firstErr error
	if c.watcher != nil {
		if err := c.watcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.coordinator != nil {
		if err := c.coordinator.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
