package locales

import (
	"fmt"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
	"github.com/google/uuid"

	"github.com/goliatone/go-sitemap/internal/identity"
	"github.com/goliatone/go-sitemap/internal/runtimeconfig"
	"github.com/goliatone/go-sitemap/routes"
)

// Logical document routes registered for every locale group.
const (
	RouteSitemap = "sitemap"
	RouteRobots  = "robots"
	RouteFeed    = "feed"
	RouteAtom    = "atom"
)

var documentPaths = map[string]string{
	RouteSitemap: "/sitemap.xml",
	RouteRobots:  "/robots.txt",
	RouteFeed:    "/feed.xml",
	RouteAtom:    "/atom.xml",
}

// Locale is a validated locale definition with its deterministic identity.
type Locale struct {
	ID            uuid.UUID
	Code          string
	CanonicalBase string
	Fallback      string
	IsDefault     bool
}

// Resolver answers locale lookups, fallback chains, and canonical URL
// construction for the configured locale set. It is immutable after
// construction, so it is safe for concurrent use without locking.
type Resolver struct {
	byCode      map[string]*Locale
	chains      map[string][]Locale
	codes       []string
	defaultCode string
	manager     *urlkit.RouteManager
}

// Option customises resolver construction.
type Option func(*Resolver)

// WithURLManager replaces the route manager derived from the locale set.
// Host-provided managers must register one group per locale code carrying
// the document routes; lookups that fail fall back to canonical-base joins.
func WithURLManager(manager *urlkit.RouteManager) Option {
	return func(r *Resolver) {
		if manager != nil {
			r.manager = manager
		}
	}
}

// NewResolver validates the locale set and precomputes fallback chains.
// Fallback cycles are rejected here, before any document is built.
func NewResolver(configs []runtimeconfig.LocaleConfig, defaultCode string, opts ...Option) (*Resolver, error) {
	if len(configs) == 0 {
		return nil, routes.ErrNoLocales
	}

	r := &Resolver{
		byCode:      make(map[string]*Locale, len(configs)),
		chains:      make(map[string][]Locale, len(configs)),
		codes:       make([]string, 0, len(configs)),
		defaultCode: strings.TrimSpace(defaultCode),
	}

	for _, cfg := range configs {
		code := strings.TrimSpace(cfg.Code)
		if code == "" {
			return nil, routes.ErrLocaleCodeRequired
		}
		if _, exists := r.byCode[code]; exists {
			return nil, fmt.Errorf("%w: %s", routes.ErrDuplicateLocale, code)
		}
		r.byCode[code] = &Locale{
			ID:            identity.LocaleUUID(code),
			Code:          code,
			CanonicalBase: strings.TrimRight(strings.TrimSpace(cfg.CanonicalBase), "/"),
			Fallback:      strings.TrimSpace(cfg.Fallback),
			IsDefault:     code == r.defaultCode,
		}
		r.codes = append(r.codes, code)
	}

	for _, code := range r.codes {
		chain, err := r.walkChain(code)
		if err != nil {
			return nil, err
		}
		r.chains[code] = chain
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.manager == nil {
		r.manager = r.defaultManager()
	}

	return r, nil
}

// walkChain follows fallback links from code, rejecting unknown targets and
// cycles. The chain starts with the locale itself and visits each locale at
// most once.
func (r *Resolver) walkChain(code string) ([]Locale, error) {
	chain := make([]Locale, 0, 4)
	visited := make(map[string]struct{}, 4)

	current := code
	for current != "" {
		locale, ok := r.byCode[current]
		if !ok {
			return nil, fmt.Errorf("%w: %s -> %s", routes.ErrFallbackUnknown, code, current)
		}
		if _, seen := visited[current]; seen {
			cycle := make([]string, 0, len(chain)+1)
			for _, link := range chain {
				cycle = append(cycle, link.Code)
			}
			cycle = append(cycle, current)
			return nil, &routes.FallbackCycleError{Chain: cycle}
		}
		visited[current] = struct{}{}
		chain = append(chain, *locale)
		current = locale.Fallback
	}

	return chain, nil
}

func (r *Resolver) defaultManager() *urlkit.RouteManager {
	groups := make([]urlkit.GroupConfig, 0, len(r.codes))
	for _, code := range r.codes {
		locale := r.byCode[code]
		paths := make(map[string]string, len(documentPaths))
		for route, path := range documentPaths {
			paths[route] = path
		}
		groups = append(groups, urlkit.GroupConfig{
			Name:    locale.Code,
			BaseURL: locale.CanonicalBase,
			Paths:   paths,
		})
	}
	return urlkit.NewRouteManager(&urlkit.Config{Groups: groups})
}

// Resolve returns the locale for code. Unknown codes yield a
// LocaleNotFoundError wrapping routes.ErrUnknownLocale.
func (r *Resolver) Resolve(code string) (*Locale, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, routes.ErrLocaleCodeRequired
	}
	locale, ok := r.byCode[trimmed]
	if !ok {
		return nil, &routes.LocaleNotFoundError{Code: trimmed}
	}
	copied := *locale
	return &copied, nil
}

// Has reports whether code names a configured locale.
func (r *Resolver) Has(code string) bool {
	_, ok := r.byCode[strings.TrimSpace(code)]
	return ok
}

// FallbackChain returns the locale followed by its fallbacks in resolution
// order. The returned slice is a copy owned by the caller.
func (r *Resolver) FallbackChain(code string) ([]Locale, error) {
	trimmed := strings.TrimSpace(code)
	chain, ok := r.chains[trimmed]
	if !ok {
		return nil, &routes.LocaleNotFoundError{Code: trimmed}
	}
	copied := make([]Locale, len(chain))
	copy(copied, chain)
	return copied, nil
}

// Codes lists the configured locale codes in configuration order.
func (r *Resolver) Codes() []string {
	copied := make([]string, len(r.codes))
	copy(copied, r.codes)
	return copied
}

// Default returns the default locale, or nil when the configured default is
// not part of the locale set.
func (r *Resolver) Default() *Locale {
	locale, ok := r.byCode[r.defaultCode]
	if !ok {
		return nil
	}
	copied := *locale
	return &copied
}

// EntryURL joins a route path under the locale's canonical base. The empty
// path addresses the base itself.
func (r *Resolver) EntryURL(locale *Locale, path string) string {
	if locale == nil {
		return ""
	}
	base := strings.TrimRight(locale.CanonicalBase, "/")
	trimmed := routes.TrimPath(path)
	if trimmed == "" {
		return base
	}
	return base + "/" + trimmed
}

// DocumentURL builds the absolute URL for a generated document (sitemap,
// robots, feed, atom) through the locale's urlkit group. Lookup failures in
// host-provided managers degrade to a canonical-base join.
func (r *Resolver) DocumentURL(code, document string) (string, error) {
	locale, err := r.Resolve(code)
	if err != nil {
		return "", err
	}

	path, known := documentPaths[document]
	if !known {
		return "", fmt.Errorf("locales: unknown document route %q", document)
	}

	if r.manager != nil {
		if built, err := r.buildDocumentURL(locale.Code, document); err == nil && built != "" {
			return built, nil
		}
	}
	return r.EntryURL(locale, path), nil
}

// buildDocumentURL shields callers from urlkit panics on unknown groups or
// routes so misconfigured managers degrade instead of crashing rebuilds.
func (r *Resolver) buildDocumentURL(group, route string) (built string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			built = ""
			err = fmt.Errorf("locales: document url build failed: %v", recovered)
		}
	}()

	grp := r.manager.Group(group)
	if grp == nil {
		return "", fmt.Errorf("locales: url group %q not registered", group)
	}
	return grp.Builder(route).Build()
}
