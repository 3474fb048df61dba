package sitemap

import "github.com/goliatone/go-sitemap/internal/runtimeconfig"

var (
	ErrSiteLocalesRequired        = runtimeconfig.ErrSiteLocalesRequired
	ErrDefaultLocaleRequired      = runtimeconfig.ErrDefaultLocaleRequired
	ErrDefaultLocaleUnknown       = runtimeconfig.ErrDefaultLocaleUnknown
	ErrLocaleCodeReserved         = runtimeconfig.ErrLocaleCodeReserved
	ErrLocaleCodeDuplicate        = runtimeconfig.ErrLocaleCodeDuplicate
	ErrCanonicalBaseRequired      = runtimeconfig.ErrCanonicalBaseRequired
	ErrCanonicalBaseInvalid       = runtimeconfig.ErrCanonicalBaseInvalid
	ErrConfigFallbackUnknown      = runtimeconfig.ErrFallbackUnknown
	ErrFallbackSelfReference      = runtimeconfig.ErrFallbackSelfReference
	ErrDefaultPriorityInvalid     = runtimeconfig.ErrDefaultPriorityInvalid
	ErrDefaultFrequencyInvalid    = runtimeconfig.ErrDefaultFrequencyInvalid
	ErrWorkersInvalid             = runtimeconfig.ErrWorkersInvalid
	ErrFeedItemLimitInvalid       = runtimeconfig.ErrFeedItemLimitInvalid
	ErrRevalidateWindowInvalid    = runtimeconfig.ErrRevalidateWindowInvalid
	ErrRevalidateQueueInvalid     = runtimeconfig.ErrRevalidateQueueInvalid
	ErrWatcherPathRequired        = runtimeconfig.ErrWatcherPathRequired
	ErrMarkdownContentDirRequired = runtimeconfig.ErrMarkdownContentDirRequired
	ErrFeedEndpointRequired       = runtimeconfig.ErrFeedEndpointRequired
	ErrFeedEndpointInvalid        = runtimeconfig.ErrFeedEndpointInvalid
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	SiteConfig           = runtimeconfig.SiteConfig
	LocaleConfig         = runtimeconfig.LocaleConfig
	GeneratorConfig      = runtimeconfig.GeneratorConfig
	RevalidateConfig     = runtimeconfig.RevalidateConfig
	SourcesConfig        = runtimeconfig.SourcesConfig
	MarkdownSourceConfig = runtimeconfig.MarkdownSourceConfig
	FeedSourceConfig     = runtimeconfig.FeedSourceConfig
	DatabaseSourceConfig = runtimeconfig.DatabaseSourceConfig
	WatcherConfig        = runtimeconfig.WatcherConfig
	HTTPConfig           = runtimeconfig.HTTPConfig
	NavigationConfig     = runtimeconfig.NavigationConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
