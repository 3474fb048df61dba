package sitemap

import (
	"github.com/goliatone/go-sitemap/internal/revalidate"
	"github.com/goliatone/go-sitemap/routes"
)

// Locale and document sentinels surfaced by reads and revalidation.
var (
	ErrNoLocales          = routes.ErrNoLocales
	ErrLocaleCodeRequired = routes.ErrLocaleCodeRequired
	ErrUnknownLocale      = routes.ErrUnknownLocale
	ErrDuplicateLocale    = routes.ErrDuplicateLocale
	ErrFallbackCycle      = routes.ErrFallbackCycle
	ErrSourceUnavailable  = routes.ErrSourceUnavailable
	ErrMalformedEntry     = routes.ErrMalformedEntry
	ErrFeedUnavailable    = routes.ErrFeedUnavailable
	ErrRobotsUnavailable  = routes.ErrRobotsUnavailable
)

// Coordinator lifecycle sentinels surfaced by Revalidate and Close.
var (
	ErrQueueFull = revalidate.ErrQueueFull
	ErrClosed    = revalidate.ErrClosed
)

// Structured error types; each unwraps to its sentinel above.
type (
	LocaleNotFoundError = routes.LocaleNotFoundError
	FallbackCycleError  = routes.FallbackCycleError
	SourceError         = routes.SourceError
	MalformedEntryError = routes.MalformedEntryError
)
