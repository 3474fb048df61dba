package routes

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	slug "github.com/goliatone/go-slug"

	"github.com/goliatone/go-sitemap/internal/locales"
	"github.com/goliatone/go-sitemap/internal/logging"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	sitemaproutes "github.com/goliatone/go-sitemap/routes"
)

// Registry produces the merged, ordered route set for a locale: static paths
// plus dynamic entries, with locale fallback filling the holes.
type Registry interface {
	// MergedRoutes returns the deduplicated route set for the locale in
	// ascending path order, together with any per-entry warnings recovered
	// during normalization. Source failures degrade to the last known good
	// fetch and never fail the call; only unknown locales do.
	MergedRoutes(ctx context.Context, locale string) ([]RouteEntry, []Warning, error)

	// LastKnown reports the most recent successful dynamic fetch for the
	// locale. The returned slice is a copy.
	LastKnown(locale string) []RouteEntry
}

// Config captures merge behaviour.
type Config struct {
	// StaticPaths are served by every locale.
	StaticPaths []string
	// LocaleStaticPaths extend StaticPaths per locale code.
	LocaleStaticPaths map[string][]string
	// DefaultFrequency applies to entries without an explicit hint.
	DefaultFrequency ChangeFrequency
	// DefaultPriority applies to entries without an explicit hint.
	DefaultPriority float64
	// SourceTimeout bounds each dynamic fetch. Zero means no extra bound.
	SourceTimeout time.Duration
}

// Dependencies wires collaborating services.
type Dependencies struct {
	Resolver *locales.Resolver
	Source   interfaces.ContentSource
	Logger   interfaces.Logger
}

type registry struct {
	cfg      Config
	resolver *locales.Resolver
	source   interfaces.ContentSource
	logger   interfaces.Logger

	mu        sync.RWMutex
	lastKnown map[string][]RouteEntry
}

// NewRegistry builds a Registry. The content source is optional; without one
// only static paths and fallback borrowing contribute entries.
func NewRegistry(cfg Config, deps Dependencies) (Registry, error) {
	if deps.Resolver == nil {
		return nil, sitemaproutes.ErrNoLocales
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	if cfg.DefaultFrequency == "" {
		cfg.DefaultFrequency = sitemaproutes.FreqWeekly
	}
	if clamped, _ := sitemaproutes.ClampPriority(cfg.DefaultPriority); clamped != cfg.DefaultPriority {
		cfg.DefaultPriority = clamped
	}

	return &registry{
		cfg:       cfg,
		resolver:  deps.Resolver,
		source:    deps.Source,
		logger:    logger,
		lastKnown: make(map[string][]RouteEntry),
	}, nil
}

func (r *registry) MergedRoutes(ctx context.Context, locale string) ([]RouteEntry, []Warning, error) {
	chain, err := r.resolver.FallbackChain(locale)
	if err != nil {
		return nil, nil, err
	}

	requested := chain[0]
	warnings := make([]Warning, 0, 4)

	merged := r.staticEntries(requested.Code)

	dynamic := r.fetchDynamic(ctx, requested.Code, &warnings)
	for _, entry := range dynamic {
		merged[entry.Path] = entry
	}

	// Fallback borrowing: the first chain locale that knows a path wins.
	// Borrowed entries are re-homed so their URLs resolve under the
	// requested locale's canonical base.
	for _, fallback := range chain[1:] {
		candidates := r.staticEntries(fallback.Code)
		for _, entry := range r.lastKnownCopy(fallback.Code) {
			candidates[entry.Path] = entry
		}
		for path, entry := range candidates {
			if _, exists := merged[path]; exists {
				continue
			}
			entry.Locale = requested.Code
			entry.Origin = FallbackOrigin(fallback.Code)
			merged[path] = entry
		}
	}

	ordered := make([]RouteEntry, 0, len(merged))
	for _, entry := range merged {
		ordered = append(ordered, entry)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Path < ordered[j].Path
	})

	return ordered, warnings, nil
}

func (r *registry) LastKnown(locale string) []RouteEntry {
	return r.lastKnownCopy(strings.TrimSpace(locale))
}

// staticEntries builds the configured static set for a locale. Duplicate
// configured paths keep the first occurrence.
func (r *registry) staticEntries(code string) map[string]RouteEntry {
	paths := make([]string, 0, len(r.cfg.StaticPaths)+4)
	paths = append(paths, r.cfg.StaticPaths...)
	if extra, ok := r.cfg.LocaleStaticPaths[code]; ok {
		paths = append(paths, extra...)
	}

	entries := make(map[string]RouteEntry, len(paths))
	for _, raw := range paths {
		path := sitemaproutes.TrimPath(raw)
		if _, exists := entries[path]; exists {
			continue
		}
		entries[path] = RouteEntry{
			Path:       path,
			Locale:     code,
			ChangeFreq: r.cfg.DefaultFrequency,
			Priority:   r.cfg.DefaultPriority,
			Origin:     OriginStatic,
		}
	}
	return entries
}

// fetchDynamic asks the content source for the locale's routes. Failures log
// a degraded warning and reuse the last known good fetch; successes replace
// it wholesale so deletions propagate.
func (r *registry) fetchDynamic(ctx context.Context, locale string, warnings *[]Warning) []RouteEntry {
	if r.source == nil {
		return nil
	}

	fetchCtx := ctx
	if r.cfg.SourceTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.cfg.SourceTimeout)
		defer cancel()
	}

	fetched, err := r.source.FetchRoutes(fetchCtx, locale)
	if err != nil {
		srcErr := &sitemaproutes.SourceError{Source: r.source.Name(), Locale: locale, Err: err}
		logging.WithRouteContext(r.logger, locale, "", r.source.Name()).
			Warn("registry.source.degraded", "error", srcErr.Error())
		*warnings = append(*warnings, Warning{
			Locale:  locale,
			Field:   "source",
			Message: srcErr.Error(),
		})
		return r.lastKnownCopy(locale)
	}

	normalized := r.normalizeDynamic(locale, fetched, warnings)
	r.storeLastKnown(locale, normalized)
	return normalized
}

// normalizeDynamic applies path, frequency, and priority normalization.
// Entries whose non-empty path collapses to nothing are skipped with a
// warning; within a fetch the first occurrence of a path wins.
func (r *registry) normalizeDynamic(locale string, fetched []RouteEntry, warnings *[]Warning) []RouteEntry {
	normalized := make([]RouteEntry, 0, len(fetched))
	seen := make(map[string]struct{}, len(fetched))

	for _, entry := range fetched {
		raw := strings.TrimSpace(entry.Path)
		path, ok := normalizePath(raw)
		if !ok {
			*warnings = append(*warnings, Warning{
				Locale:  locale,
				Path:    raw,
				Field:   "path",
				Message: "path is empty after normalization; entry skipped",
			})
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}

		entry.Path = path
		entry.Locale = locale
		if entry.Origin == "" {
			entry.Origin = r.source.Name()
		}

		if raw := string(entry.ChangeFreq); raw != "" {
			if freq, valid := sitemaproutes.ParseChangeFrequency(raw); valid {
				entry.ChangeFreq = freq
			} else {
				*warnings = append(*warnings, Warning{
					Locale:  locale,
					Path:    path,
					Field:   "change_freq",
					Message: "unknown change frequency " + strconv.Quote(raw) + "; default applied",
				})
				entry.ChangeFreq = r.cfg.DefaultFrequency
			}
		} else {
			entry.ChangeFreq = r.cfg.DefaultFrequency
		}

		switch {
		case entry.Priority == 0:
			// Zero means unset; explicit 0.0 priorities are expressed by
			// clamping a negative input.
			entry.Priority = r.cfg.DefaultPriority
		default:
			clamped, wasClamped := sitemaproutes.ClampPriority(entry.Priority)
			if wasClamped {
				*warnings = append(*warnings, Warning{
					Locale:  locale,
					Path:    path,
					Field:   "priority",
					Message: "priority outside [0.0, 1.0]; clamped",
				})
			}
			entry.Priority = clamped
		}

		if !entry.LastModified.IsZero() {
			entry.LastModified = entry.LastModified.UTC()
		}

		normalized = append(normalized, entry)
	}

	return normalized
}

// normalizePath slugs each path segment. The empty raw path addresses the
// locale root and stays valid; a non-empty path that normalizes to nothing
// reports !ok so the caller can skip it.
func normalizePath(raw string) (string, bool) {
	trimmed := sitemaproutes.TrimPath(raw)
	if trimmed == "" {
		if raw == "" {
			return "", true
		}
		return "", false
	}

	segments := strings.Split(trimmed, "/")
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		normalized, err := slug.Normalize(segment)
		if err != nil || normalized == "" {
			return "", false
		}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return "", false
	}
	return strings.Join(out, "/"), true
}

func (r *registry) lastKnownCopy(locale string) []RouteEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.lastKnown[locale]
	if !ok || len(stored) == 0 {
		return nil
	}
	copied := make([]RouteEntry, len(stored))
	copy(copied, stored)
	return copied
}

func (r *registry) storeLastKnown(locale string, entries []RouteEntry) {
	copied := make([]RouteEntry, len(entries))
	copy(copied, entries)
	r.mu.Lock()
	r.lastKnown[locale] = copied
	r.mu.Unlock()
}
