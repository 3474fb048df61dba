package sitemap

import (
	"context"
	"io/fs"
	"time"

	command "github.com/goliatone/go-command"
	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-sitemap/internal/commands"
	"github.com/goliatone/go-sitemap/internal/di"
	sitemaphttp "github.com/goliatone/go-sitemap/internal/http"
	"github.com/goliatone/go-sitemap/internal/revalidate"
	"github.com/goliatone/go-sitemap/internal/sources"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

// SitemapDocument exports the generated sitemap artifact.
type SitemapDocument = routes.SitemapDocument

// RobotsPolicy exports the generated robots artifact.
type RobotsPolicy = routes.RobotsPolicy

// FeedDocument exports the generated feed artifact.
type FeedDocument = routes.FeedDocument

// FeedFormat selects between the supported feed serializations.
type FeedFormat = routes.FeedFormat

// DocumentSet exports the per-locale generation result.
type DocumentSet = routes.DocumentSet

// LocaleStatus exports the per-locale lifecycle snapshot.
type LocaleStatus = routes.LocaleStatus

// RouteEntry exports the route record accepted by content sources.
type RouteEntry = routes.RouteEntry

// RevalidationEvent exports the staleness event accepted by Revalidate.
type RevalidationEvent = routes.RevalidationEvent

// Logger exports the structured logging contract hosts can implement.
type Logger = interfaces.Logger

// LoggerProvider exports the named-logger factory contract.
type LoggerProvider = interfaces.LoggerProvider

// ContentSource exports the route adapter contract for custom sources.
type ContentSource = interfaces.ContentSource

// RouteSource exports the programmatic route source. Entries added here
// merge with every configured adapter on the next rebuild.
type RouteSource = *sources.MemorySource

// API exports the optional HTTP surface; Register mounts it on a ServeMux.
type API = *sitemaphttp.API

// CommandRegistry exports the registration contract for command handlers.
type CommandRegistry = commands.CommandRegistry

// CronRegistrar exports the cron hook signature used by go-command registries.
type CronRegistrar = commands.CronRegistrar

// HandlerSet exports the wired sitemap command handlers.
type HandlerSet = commands.HandlerSet

// CommandOption exports the per-handler wiring options.
type CommandOption = commands.Option

// RebuildLocaleCommand exports the single-locale rebuild message.
type RebuildLocaleCommand = commands.RebuildLocaleCommand

// RebuildAllCommand exports the all-locales rebuild message.
type RebuildAllCommand = commands.RebuildAllCommand

// RevalidateCommand exports the enqueue-only revalidation message.
type RevalidateCommand = commands.RevalidateCommand

// Feed formats understood by the builder.
const (
	FeedRSS  = routes.FeedRSS
	FeedAtom = routes.FeedAtom
)

// Lifecycle states reported by Status.
const (
	StateIdle       = revalidate.StateIdle
	StatePending    = revalidate.StatePending
	StateRebuilding = revalidate.StateRebuilding
)

// LocaleAll targets every configured locale in a single revalidation event.
const LocaleAll = revalidate.LocaleAll

// Option customises module assembly.
type Option = di.Option

// WithLogger injects a logger provider, overriding the logging config section.
func WithLogger(provider LoggerProvider) Option {
	return di.WithLogger(provider)
}

// WithSource appends a custom content source. Its entries win path
// collisions against the config-enabled adapters.
func WithSource(source ContentSource) Option {
	return di.WithSource(source)
}

// WithDB injects the bun handle required by the database source.
func WithDB(db *bun.DB) Option {
	return di.WithDB(db)
}

// WithCache wraps the database source repository with a cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return di.WithCache(service, serializer)
}

// WithContentFS overrides the filesystem backing the markdown source.
func WithContentFS(fsys fs.FS) Option {
	return di.WithContentFS(fsys)
}

// WithClock pins the clock stamped on documents and revalidation events.
func WithClock(now func() time.Time) Option {
	return di.WithClock(now)
}

// WithURLManager replaces the urlkit route manager derived from the locale set.
func WithURLManager(manager *urlkit.RouteManager) Option {
	return di.WithURLManager(manager)
}

// Service is the top level sitemap runtime facade. Reads return the
// published documents for a locale, rebuilding lazily on first use;
// Revalidate marks locales stale and lets the coordinator rebuild in the
// background. Callers must Close the service to stop background work.
type Service struct {
	container *di.Container
}

// New constructs the sitemap module from cfg plus optional DI overrides.
func New(cfg Config, opts ...Option) (*Service, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Service{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (s *Service) Container() *di.Container {
	if s == nil {
		return nil
	}
	return s.container
}

// Sitemap returns the published sitemap document for locale.
func (s *Service) Sitemap(ctx context.Context, locale string) (*SitemapDocument, error) {
	return s.container.Coordinator().Sitemap(ctx, locale)
}

// Robots returns the published robots policy for locale.
func (s *Service) Robots(ctx context.Context, locale string) (*RobotsPolicy, error) {
	return s.container.Coordinator().Robots(ctx, locale)
}

// Feed returns the published feed document for locale in the given format.
func (s *Service) Feed(ctx context.Context, locale string, format FeedFormat) (*FeedDocument, error) {
	return s.container.Coordinator().Feed(ctx, locale, format)
}

// Revalidate marks locale stale. Reason is free-form and lands on logs and
// status output; LocaleAll fans out to every configured locale.
func (s *Service) Revalidate(locale, reason string) error {
	return s.container.Coordinator().Enqueue(routes.RevalidationEvent{
		Locale: locale,
		Reason: reason,
	})
}

// Rebuild synchronously regenerates every document for locale.
func (s *Service) Rebuild(ctx context.Context, locale string) (*DocumentSet, error) {
	return s.container.Coordinator().Rebuild(ctx, locale)
}

// RebuildAll synchronously regenerates documents for every configured locale.
func (s *Service) RebuildAll(ctx context.Context) error {
	return s.container.Coordinator().RebuildAll(ctx)
}

// Status reports the lifecycle snapshot for one locale.
func (s *Service) Status(locale string) (*LocaleStatus, error) {
	return s.container.Coordinator().Status(locale)
}

// StatusAll reports every locale's lifecycle snapshot in code order.
func (s *Service) StatusAll() []LocaleStatus {
	return s.container.Coordinator().StatusAll()
}

// Published returns the current document set for locale without triggering
// a rebuild. The boolean reports whether anything has been published yet.
func (s *Service) Published(locale string) (*DocumentSet, bool) {
	return s.container.Coordinator().Published(locale)
}

// Routes returns the programmatic route source.
func (s *Service) Routes() RouteSource {
	if s == nil || s.container == nil {
		return nil
	}
	return s.container.MemorySource()
}

// HTTP returns the HTTP surface when the config enables it, nil otherwise.
func (s *Service) HTTP() API {
	if s == nil || s.container == nil {
		return nil
	}
	return s.container.API()
}

// RegisterCommands wires the sitemap command handlers against this service's
// coordinator and registers them with reg. A nil registry only constructs
// the handler set, which callers can hand to a dispatcher or cron registrar.
func (s *Service) RegisterCommands(reg CommandRegistry, opts ...CommandOption) (*HandlerSet, error) {
	return commands.RegisterSitemapCommands(reg, s.container.Coordinator(), s.container.LoggerProvider(), opts...)
}

// RegisterRebuildCron schedules the rebuild-all handler on a cron registrar.
func RegisterRebuildCron(reg CronRegistrar, handler *commands.RebuildAllHandler, cfg command.HandlerConfig, msg RebuildAllCommand) error {
	return commands.RegisterRebuildCron(reg, handler, cfg, msg)
}

// Close stops the watcher and coordinator. Idempotent.
func (s *Service) Close() error {
	if s == nil || s.container == nil {
		return nil
	}
	return s.container.Close()
}
