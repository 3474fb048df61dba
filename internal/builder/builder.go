package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/goliatone/go-sitemap/internal/identity"
	"github.com/goliatone/go-sitemap/internal/locales"
	"github.com/goliatone/go-sitemap/internal/logging"
	internalroutes "github.com/goliatone/go-sitemap/internal/routes"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

var (
	// ErrResolverRequired indicates the builder was constructed without a locale resolver.
	ErrResolverRequired = errors.New("builder: locale resolver is required")
	// ErrRegistryRequired indicates the builder was constructed without a route registry.
	ErrRegistryRequired = errors.New("builder: route registry is required")
)

// Config captures behaviour toggles for document generation.
type Config struct {
	SiteTitle       string
	SiteDescription string
	GenerateRobots  bool
	GenerateFeeds   bool
	MaxFeedItems    int
	DisallowedPaths []string
}

// Dependencies lists the collaborators required by the builder.
type Dependencies struct {
	Resolver *locales.Resolver
	Registry internalroutes.Registry
	Logger   interfaces.Logger
	// Now overrides the clock stamped on generated documents. Nil means time.Now.
	Now func() time.Time
}

// Builder turns merged route sets into sitemap, robots, and feed documents.
// Serialization is a pure function of the entries, so rebuilding from an
// unchanged registry yields byte-identical artifacts.
type Builder struct {
	cfg        Config
	resolver   *locales.Resolver
	registry   internalroutes.Registry
	logger     interfaces.Logger
	disallowed []string
	now        func() time.Time
}

// New wires a document builder with the provided configuration and dependencies.
func New(cfg Config, deps Dependencies) (*Builder, error) {
	if deps.Resolver == nil {
		return nil, ErrResolverRequired
	}
	if deps.Registry == nil {
		return nil, ErrRegistryRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	clock := deps.Now
	if clock == nil {
		clock = time.Now
	}
	if cfg.MaxFeedItems <= 0 {
		cfg.MaxFeedItems = defaultMaxFeedItems
	}
	return &Builder{
		cfg:        cfg,
		resolver:   deps.Resolver,
		registry:   deps.Registry,
		logger:     logger,
		disallowed: normalizeDisallowed(cfg.DisallowedPaths),
		now:        clock,
	}, nil
}

// Build produces the sitemap document for locale. Unknown locales fail with
// an error wrapping routes.ErrUnknownLocale; content source degradation
// surfaces as document warnings, never as a build failure.
func (b *Builder) Build(ctx context.Context, locale string) (*routes.SitemapDocument, error) {
	loc, err := b.resolver.Resolve(locale)
	if err != nil {
		return nil, err
	}
	entries, warnings, err := b.registry.MergedRoutes(ctx, loc.Code)
	if err != nil {
		return nil, err
	}
	return b.sitemapDocument(loc, entries, warnings, b.now().UTC()), nil
}

// BuildRobots produces the robots policy for locale from configuration and
// the locale's resolved sitemap URL. It never touches content sources.
func (b *Builder) BuildRobots(locale string) (*routes.RobotsPolicy, error) {
	loc, err := b.resolver.Resolve(locale)
	if err != nil {
		return nil, err
	}
	return b.robotsPolicy(loc), nil
}

// BuildFeeds produces the RSS and Atom feeds for locale. Locales whose
// merged routes carry no titled entries yield nil documents.
func (b *Builder) BuildFeeds(ctx context.Context, locale string) (*routes.FeedDocument, *routes.FeedDocument, error) {
	loc, err := b.resolver.Resolve(locale)
	if err != nil {
		return nil, nil, err
	}
	entries, _, err := b.registry.MergedRoutes(ctx, loc.Code)
	if err != nil {
		return nil, nil, err
	}
	rss, atom := b.feedDocuments(loc, entries, b.now().UTC())
	return rss, atom, nil
}

// BuildSet produces every artifact enabled by configuration for locale in a
// single registry pass, so the sitemap, robots, and feeds always describe
// the same merged route set.
func (b *Builder) BuildSet(ctx context.Context, locale string) (*routes.DocumentSet, error) {
	loc, err := b.resolver.Resolve(locale)
	if err != nil {
		return nil, err
	}
	entries, warnings, err := b.registry.MergedRoutes(ctx, loc.Code)
	if err != nil {
		return nil, err
	}

	generatedAt := b.now().UTC()
	set := &routes.DocumentSet{
		Locale:      loc.Code,
		Sitemap:     b.sitemapDocument(loc, entries, warnings, generatedAt),
		GeneratedAt: generatedAt,
	}
	if b.cfg.GenerateRobots {
		set.Robots = b.robotsPolicy(loc)
	}
	if b.cfg.GenerateFeeds {
		set.RSS, set.Atom = b.feedDocuments(loc, entries, generatedAt)
	}
	return set, nil
}

func (b *Builder) sitemapDocument(loc *locales.Locale, entries []routes.RouteEntry, warnings []routes.Warning, generatedAt time.Time) *routes.SitemapDocument {
	body := renderSitemap(b.resolver, loc, entries)
	doc := &routes.SitemapDocument{
		ID:          identity.DocumentUUID(loc.Code),
		Locale:      loc.Code,
		Entries:     entries,
		GeneratedAt: generatedAt,
		XML:         []byte(body),
		Checksum:    computeHashFromString(body),
		Warnings:    warnings,
	}
	b.logger.Debug("builder.sitemap.generated",
		"locale", loc.Code,
		"entries", len(doc.Entries),
		"warnings", len(doc.Warnings),
	)
	return doc
}

func (b *Builder) robotsPolicy(loc *locales.Locale) *routes.RobotsPolicy {
	sitemapURL, err := b.resolver.DocumentURL(loc.Code, locales.RouteSitemap)
	if err != nil {
		sitemapURL = b.resolver.EntryURL(loc, "sitemap.xml")
	}
	body := renderRobots(sitemapURL, b.disallowed)
	return &routes.RobotsPolicy{
		Locale:          loc.Code,
		AllowAll:        len(b.disallowed) == 0,
		DisallowedPaths: append([]string(nil), b.disallowed...),
		SitemapURL:      sitemapURL,
		Body:            []byte(body),
		Checksum:        computeHashFromString(body),
	}
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}
