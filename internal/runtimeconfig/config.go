package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-sitemap/routes"
)

var ErrSiteLocalesRequired = errors.New("sitemap config: at least one locale is required")
var ErrDefaultLocaleRequired = errors.New("sitemap config: default locale is required")
var ErrDefaultLocaleUnknown = errors.New("sitemap config: default locale is not in the configured set")
var ErrLocaleCodeRequired = errors.New("sitemap config: locale code is required")
var ErrLocaleCodeReserved = errors.New("sitemap config: locale code is reserved")
var ErrLocaleCodeDuplicate = errors.New("sitemap config: duplicate locale code")
var ErrCanonicalBaseRequired = errors.New("sitemap config: locale canonical base is required")
var ErrCanonicalBaseInvalid = errors.New("sitemap config: locale canonical base is invalid")
var ErrFallbackUnknown = errors.New("sitemap config: locale fallback references unknown locale")
var ErrFallbackSelfReference = errors.New("sitemap config: locale fallback references itself")
var ErrDefaultPriorityInvalid = errors.New("sitemap config: default priority must be within [0.0, 1.0]")
var ErrDefaultFrequencyInvalid = errors.New("sitemap config: default change frequency is invalid")
var ErrWorkersInvalid = errors.New("sitemap config: rebuild workers must be zero or positive")
var ErrFeedItemLimitInvalid = errors.New("sitemap config: feed item limit must be zero or positive")
var ErrRevalidateWindowInvalid = errors.New("sitemap config: revalidation coalesce window must be zero or positive")
var ErrRevalidateQueueInvalid = errors.New("sitemap config: revalidation queue size must be zero or positive")
var ErrWatcherPathRequired = errors.New("sitemap config: watcher path is required when the watcher is enabled")
var ErrMarkdownContentDirRequired = errors.New("sitemap config: markdown content directory is required when enabled")
var ErrFeedEndpointRequired = errors.New("sitemap config: feed source endpoint is required when enabled")
var ErrFeedEndpointInvalid = errors.New("sitemap config: feed source endpoint is invalid")
var ErrLoggingProviderUnknown = errors.New("sitemap config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("sitemap config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("sitemap config: logging format is invalid")

// reservedLocaleCodes cannot be used as locale identifiers because the
// revalidation API treats them as selectors.
var reservedLocaleCodes = map[string]struct{}{
	"all": {},
}

// Config aggregates site topology and adapter bindings for the sitemap module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Site       SiteConfig
	Generator  GeneratorConfig
	Revalidate RevalidateConfig
	Sources    SourcesConfig
	Watcher    WatcherConfig
	HTTP       HTTPConfig
	Navigation NavigationConfig
	Logging    LoggingConfig
}

// SiteConfig describes the locales served by the site and the static routes
// every generation starts from.
type SiteConfig struct {
	Title                  string
	Description            string
	DefaultLocale          string
	Locales                []LocaleConfig
	StaticPaths            []string
	LocaleStaticPaths      map[string][]string
	DefaultChangeFrequency string
	DefaultPriority        float64
	DisallowedPaths        []string
}

// LocaleConfig declares one locale: its opaque code, the absolute canonical
// base its URLs live under, and an optional fallback locale code.
type LocaleConfig struct {
	Code          string
	CanonicalBase string
	Fallback      string
}

// GeneratorConfig captures build behaviour for generated documents.
// OutputDir is optional; when empty, artifacts stay in memory.
type GeneratorConfig struct {
	OutputDir      string
	GenerateRobots bool
	GenerateFeeds  bool
	MaxFeedItems   int
	Workers        int
	BuildTimeout   time.Duration
	SourceTimeout  time.Duration
}

// RevalidateConfig tunes the revalidation coordinator.
type RevalidateConfig struct {
	CoalesceWindow time.Duration
	QueueSize      int
}

// SourcesConfig enables the built-in content source adapters. Hosts can also
// inject custom adapters through the container options.
type SourcesConfig struct {
	Markdown MarkdownSourceConfig
	Feed     FeedSourceConfig
	Database DatabaseSourceConfig
}

// MarkdownSourceConfig captures filesystem behaviour for Markdown ingestion.
type MarkdownSourceConfig struct {
	Enabled    bool
	ContentDir string
	Extensions []string
}

// FeedSourceConfig points the HTTP feed adapter at a JSON route feed.
type FeedSourceConfig struct {
	Enabled  bool
	Endpoint string
	Timeout  time.Duration
}

// DatabaseSourceConfig toggles the bun-backed route source. It requires a
// *bun.DB supplied via the container options.
type DatabaseSourceConfig struct {
	Enabled bool
}

// WatcherConfig captures filesystem watching behaviour for content-driven
// revalidation.
type WatcherConfig struct {
	Enabled        bool
	Path           string
	Extensions     []string
	DebounceWindow time.Duration
}

// HTTPConfig captures mounting options for the read and revalidation endpoints.
// Registration itself stays with the host; Enabled gates whether the container
// constructs the API at all.
type HTTPConfig struct {
	Enabled  bool
	BasePath string
}

// NavigationConfig lets hosts provide a fully custom go-urlkit route
// configuration. When absent, locale groups are derived from SiteConfig.
type NavigationConfig struct {
	RouteConfig *urlkit.Config
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults for a single-locale site.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			DefaultLocale: "en",
			Locales: []LocaleConfig{
				{Code: "en", CanonicalBase: "http://localhost:8080"},
			},
			StaticPaths:            []string{""},
			LocaleStaticPaths:      map[string][]string{},
			DefaultChangeFrequency: string(routes.FreqWeekly),
			DefaultPriority:        0.5,
		},
		Generator: GeneratorConfig{
			GenerateRobots: true,
			GenerateFeeds:  false,
			MaxFeedItems:   100,
			Workers:        0,
			BuildTimeout:   30 * time.Second,
			SourceTimeout:  10 * time.Second,
		},
		Revalidate: RevalidateConfig{
			CoalesceWindow: 2 * time.Second,
			QueueSize:      64,
		},
		Sources: SourcesConfig{
			Markdown: MarkdownSourceConfig{
				ContentDir: "content",
				Extensions: []string{".md", ".markdown"},
			},
			Feed: FeedSourceConfig{
				Timeout: 10 * time.Second,
			},
		},
		Watcher: WatcherConfig{
			Extensions:     []string{".md", ".markdown"},
			DebounceWindow: 500 * time.Millisecond,
		},
		HTTP: HTTPConfig{},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "console",
		},
	}
}

// Validate performs high-level consistency checks. Fallback cycle detection
// happens when the locale resolver is constructed, so both misconfiguration
// classes surface before the first document is built.
func (cfg Config) Validate() error {
	if len(cfg.Site.Locales) == 0 {
		return ErrSiteLocalesRequired
	}
	if strings.TrimSpace(cfg.Site.DefaultLocale) == "" {
		return ErrDefaultLocaleRequired
	}

	seen := make(map[string]struct{}, len(cfg.Site.Locales))
	for _, locale := range cfg.Site.Locales {
		code := strings.TrimSpace(locale.Code)
		if code == "" {
			return ErrLocaleCodeRequired
		}
		if _, reserved := reservedLocaleCodes[strings.ToLower(code)]; reserved {
			return fmt.Errorf("%w: %s", ErrLocaleCodeReserved, code)
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("%w: %s", ErrLocaleCodeDuplicate, code)
		}
		seen[code] = struct{}{}

		base := strings.TrimSpace(locale.CanonicalBase)
		if base == "" {
			return fmt.Errorf("%w: %s", ErrCanonicalBaseRequired, code)
		}
		if !isAbsoluteURL(base) {
			return fmt.Errorf("%w: %s", ErrCanonicalBaseInvalid, base)
		}
	}

	if _, ok := seen[strings.TrimSpace(cfg.Site.DefaultLocale)]; !ok {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleUnknown, cfg.Site.DefaultLocale)
	}

	for _, locale := range cfg.Site.Locales {
		fallback := strings.TrimSpace(locale.Fallback)
		if fallback == "" {
			continue
		}
		if fallback == strings.TrimSpace(locale.Code) {
			return fmt.Errorf("%w: %s", ErrFallbackSelfReference, locale.Code)
		}
		if _, ok := seen[fallback]; !ok {
			return fmt.Errorf("%w: %s -> %s", ErrFallbackUnknown, locale.Code, fallback)
		}
	}

	if cfg.Site.DefaultPriority < 0 || cfg.Site.DefaultPriority > 1 {
		return fmt.Errorf("%w: %v", ErrDefaultPriorityInvalid, cfg.Site.DefaultPriority)
	}
	if freq := strings.TrimSpace(cfg.Site.DefaultChangeFrequency); freq != "" {
		if _, ok := routes.ParseChangeFrequency(freq); !ok {
			return fmt.Errorf("%w: %s", ErrDefaultFrequencyInvalid, freq)
		}
	}

	if cfg.Generator.Workers < 0 {
		return ErrWorkersInvalid
	}
	if cfg.Generator.MaxFeedItems < 0 {
		return ErrFeedItemLimitInvalid
	}
	if cfg.Revalidate.CoalesceWindow < 0 {
		return ErrRevalidateWindowInvalid
	}
	if cfg.Revalidate.QueueSize < 0 {
		return ErrRevalidateQueueInvalid
	}

	if cfg.Watcher.Enabled && strings.TrimSpace(cfg.Watcher.Path) == "" {
		return ErrWatcherPathRequired
	}
	if cfg.Sources.Markdown.Enabled && strings.TrimSpace(cfg.Sources.Markdown.ContentDir) == "" {
		return ErrMarkdownContentDirRequired
	}
	if cfg.Sources.Feed.Enabled {
		endpoint := strings.TrimSpace(cfg.Sources.Feed.Endpoint)
		if endpoint == "" {
			return ErrFeedEndpointRequired
		}
		if !isAbsoluteURL(endpoint) {
			return fmt.Errorf("%w: %s", ErrFeedEndpointInvalid, endpoint)
		}
	}

	provider := normalizeProvider(cfg.Logging.Provider)
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

	return nil
}

// StaticPathsFor returns the static path set for a locale: the shared paths
// plus any locale-specific additions, trimmed but otherwise untouched.
func (cfg SiteConfig) StaticPathsFor(code string) []string {
	paths := make([]string, 0, len(cfg.StaticPaths)+4)
	paths = append(paths, cfg.StaticPaths...)
	if extra, ok := cfg.LocaleStaticPaths[code]; ok {
		paths = append(paths, extra...)
	}
	return paths
}

func isAbsoluteURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "", "noop", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
