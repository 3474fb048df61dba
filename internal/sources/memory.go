package sources

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

// MemorySource is a programmatic content source. Hosts push route entries
// into it and the registry pulls them like any other adapter.
type MemorySource struct {
	mu       sync.RWMutex
	entries  map[string][]routes.RouteEntry
	failures map[string]error
}

var _ interfaces.ContentSource = (*MemorySource)(nil)

// NewMemorySource returns an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		entries:  map[string][]routes.RouteEntry{},
		failures: map[string]error{},
	}
}

// Name identifies the adapter on merged entries and degradation warnings.
func (s *MemorySource) Name() string { return "memory" }

// FetchRoutes returns a copy of the entries held for locale.
func (s *MemorySource) FetchRoutes(_ context.Context, locale string) ([]routes.RouteEntry, error) {
	code := strings.TrimSpace(locale)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[code]; err != nil {
		return nil, err
	}
	stored := s.entries[code]
	copied := make([]routes.RouteEntry, len(stored))
	copy(copied, stored)
	return copied, nil
}

// Add appends entries for locale. Paths must be locale-relative; absolute
// URLs are rejected so misconfigured hosts fail loudly instead of emitting
// broken sitemap locations.
func (s *MemorySource) Add(locale string, entries ...routes.RouteEntry) error {
	code := strings.TrimSpace(locale)
	if code == "" {
		return routes.ErrLocaleCodeRequired
	}
	prepared, err := prepareEntries(code, entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[code] = append(s.entries[code], prepared...)
	return nil
}

// Set swaps the locale's entries wholesale.
func (s *MemorySource) Set(locale string, entries ...routes.RouteEntry) error {
	code := strings.TrimSpace(locale)
	if code == "" {
		return routes.ErrLocaleCodeRequired
	}
	prepared, err := prepareEntries(code, entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[code] = prepared
	return nil
}

// Fail makes every fetch for locale return err until cleared with a nil err.
// Lets tests and examples drive the degraded path without a real backend.
func (s *MemorySource) Fail(locale string, err error) {
	code := strings.TrimSpace(locale)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, code)
		return
	}
	s.failures[code] = err
}

// Remove drops the entry with path from locale. Missing entries are a no-op.
func (s *MemorySource) Remove(locale, path string) {
	code := strings.TrimSpace(locale)
	target := routes.TrimPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.entries[code]
	kept := stored[:0]
	for _, entry := range stored {
		if routes.TrimPath(entry.Path) != target {
			kept = append(kept, entry)
		}
	}
	s.entries[code] = kept
}

func prepareEntries(locale string, entries []routes.RouteEntry) ([]routes.RouteEntry, error) {
	prepared := make([]routes.RouteEntry, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry.Path, "://") {
			return nil, &routes.MalformedEntryError{
				Locale: locale,
				Path:   entry.Path,
				Reason: "path must be locale-relative, not an absolute URL",
			}
		}
		entry.Locale = locale
		if entry.Origin == "" {
			entry.Origin = "memory"
		}
		prepared = append(prepared, entry)
	}
	return prepared, nil
}
