package routes_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	registry "github.com/goliatone/go-sitemap/internal/routes"

	"github.com/goliatone/go-sitemap/internal/locales"
	"github.com/goliatone/go-sitemap/internal/runtimeconfig"
	"github.com/goliatone/go-sitemap/routes"
)

type fakeSource struct {
	mu      sync.Mutex
	entries map[string][]routes.RouteEntry
	errs    map[string]error
	calls   []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchRoutes(_ context.Context, locale string) ([]routes.RouteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, locale)
	if err, ok := f.errs[locale]; ok && err != nil {
		return nil, err
	}
	stored := f.entries[locale]
	copied := make([]routes.RouteEntry, len(stored))
	copy(copied, stored)
	return copied, nil
}

func (f *fakeSource) setError(locale string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = map[string]error{}
	}
	f.errs[locale] = err
}

func newTestResolver(t *testing.T) *locales.Resolver {
	t.Helper()
	resolver, err := locales.NewResolver([]runtimeconfig.LocaleConfig{
		{Code: "en", CanonicalBase: "https://academy.example.com/en"},
		{Code: "hi", CanonicalBase: "https://academy.example.com/hi", Fallback: "en"},
	}, "en")
	if err != nil {
		t.Fatalf("NewResolver returned error: %v", err)
	}
	return resolver
}

func newTestRegistry(t *testing.T, source *fakeSource) registry.Registry {
	t.Helper()
	cfg := registry.Config{
		StaticPaths:       []string{"", "about", "courses"},
		LocaleStaticPaths: map[string][]string{"en": {"careers"}},
		DefaultFrequency:  routes.FreqWeekly,
		DefaultPriority:   0.5,
		SourceTimeout:     time.Second,
	}
	deps := registry.Dependencies{Resolver: newTestResolver(t)}
	if source != nil {
		deps.Source = source
	}
	reg, err := registry.NewRegistry(cfg, deps)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}
	return reg
}

func entryPaths(entries []routes.RouteEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.Path)
	}
	return paths
}

func findEntry(t *testing.T, entries []routes.RouteEntry, path string) routes.RouteEntry {
	t.Helper()
	for _, entry := range entries {
		if entry.Path == path {
			return entry
		}
	}
	t.Fatalf("expected entry %q in %v", path, entryPaths(entries))
	return routes.RouteEntry{}
}

func TestMergedRoutesStaticOnly(t *testing.T) {
	reg := newTestRegistry(t, nil)

	entries, warnings, err := reg.MergedRoutes(context.Background(), "en")
	if err != nil {
		t.Fatalf("MergedRoutes returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}

	want := []string{"", "about", "careers", "courses"}
	got := entryPaths(entries)
	if len(got) != len(want) {
		t.Fatalf("expected paths %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sorted paths %v, got %v", want, got)
		}
	}

	about := findEntry(t, entries, "about")
	if about.ChangeFreq != routes.FreqWeekly || about.Priority != 0.5 {
		t.Fatalf("expected defaults on static entry, got %+v", about)
	}
	if about.Origin != registry.OriginStatic {
		t.Fatalf("expected static origin, got %q", about.Origin)
	}
	if about.Locale != "en" {
		t.Fatalf("expected locale en, got %q", about.Locale)
	}
}

func TestMergedRoutesUnknownLocale(t *testing.T) {
	reg := newTestRegistry(t, nil)

	_, _, err := reg.MergedRoutes(context.Background(), "fr")
	if !errors.Is(err, routes.ErrUnknownLocale) {
		t.Fatalf("expected ErrUnknownLocale, got %v", err)
	}
}

func TestMergedRoutesDynamicOverridesStatic(t *testing.T) {
	modified := time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC)
	source := &fakeSource{entries: map[string][]routes.RouteEntry{
		"en": {
			{Path: "about", ChangeFreq: routes.FreqDaily, Priority: 0.9, LastModified: modified},
			{Path: "blog/launch", Priority: 0.7},
		},
	}}
	reg := newTestRegistry(t, source)

	entries, warnings, err := reg.MergedRoutes(context.Background(), "en")
	if err != nil {
		t.Fatalf("MergedRoutes returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}

	about := findEntry(t, entries, "about")
	if about.ChangeFreq != routes.FreqDaily || about.Priority != 0.9 {
		t.Fatalf("expected dynamic entry to win, got %+v", about)
	}
	if !about.LastModified.Equal(modified) {
		t.Fatalf("expected dynamic last modified, got %v", about.LastModified)
	}
	if about.Origin != "fake" {
		t.Fatalf("expected source origin, got %q", about.Origin)
	}

	launch := findEntry(t, entries, "blog/launch")
	if launch.ChangeFreq != routes.FreqWeekly {
		t.Fatalf("expected default frequency on entry without hint, got %q", launch.ChangeFreq)
	}
}

func TestMergedRoutesNormalizesAndWarns(t *testing.T) {
	source := &fakeSource{entries: map[string][]routes.RouteEntry{
		"en": {
			{Path: "Blog/UPSC 2025", Priority: 1.7},
			{Path: "///"},
			{Path: "pricing", ChangeFreq: "fortnightly"},
			{Path: "pricing", Priority: 0.2},
		},
	}}
	reg := newTestRegistry(t, source)

	entries, warnings, err := reg.MergedRoutes(context.Background(), "en")
	if err != nil {
		t.Fatalf("MergedRoutes returned error: %v", err)
	}

	normalized := findEntry(t, entries, "blog/upsc-2025")
	if normalized.Priority != 1.0 {
		t.Fatalf("expected clamped priority 1.0, got %v", normalized.Priority)
	}

	pricing := findEntry(t, entries, "pricing")
	if pricing.ChangeFreq != routes.FreqWeekly {
		t.Fatalf("expected default frequency after invalid hint, got %q", pricing.ChangeFreq)
	}

	fields := map[string]int{}
	for _, warning := range warnings {
		fields[warning.Field]++
	}
	if fields["priority"] != 1 {
		t.Fatalf("expected one priority warning, got %v", warnings)
	}
	if fields["path"] != 1 {
		t.Fatalf("expected one skipped-path warning, got %v", warnings)
	}
	if fields["change_freq"] != 1 {
		t.Fatalf("expected one frequency warning, got %v", warnings)
	}

	for _, entry := range entries {
		if strings.Contains(entry.Path, " ") || strings.Contains(entry.Path, "UPSC") {
			t.Fatalf("expected normalized paths, got %q", entry.Path)
		}
	}
}

func TestMergedRoutesDegradesToLastKnownGood(t *testing.T) {
	source := &fakeSource{entries: map[string][]routes.RouteEntry{
		"en": {{Path: "blog/first", Priority: 0.8}},
	}}
	reg := newTestRegistry(t, source)

	if _, _, err := reg.MergedRoutes(context.Background(), "en"); err != nil {
		t.Fatalf("MergedRoutes returned error: %v", err)
	}
	if got := reg.LastKnown("en"); len(got) != 1 || got[0].Path != "blog/first" {
		t.Fatalf("expected last known fetch to be recorded, got %v", got)
	}

	source.setError("en", errors.New("connection refused"))

	entries, warnings, err := reg.MergedRoutes(context.Background(), "en")
	if err != nil {
		t.Fatalf("MergedRoutes returned error: %v", err)
	}

	if findEntry(t, entries, "blog/first").Priority != 0.8 {
		t.Fatalf("expected last known dynamic entry to survive the outage")
	}

	var degraded bool
	for _, warning := range warnings {
		if warning.Field == "source" && strings.Contains(warning.Message, "connection refused") {
			degraded = true
		}
	}
	if !degraded {
		t.Fatalf("expected degraded source warning, got %v", warnings)
	}
}

func TestMergedRoutesSuccessReplacesLastKnown(t *testing.T) {
	source := &fakeSource{entries: map[string][]routes.RouteEntry{
		"en": {{Path: "blog/first"}, {Path: "blog/second"}},
	}}
	reg := newTestRegistry(t, source)

	if _, _, err := reg.MergedRoutes(context.Background(), "en"); err != nil {
		t.Fatalf("MergedRoutes returned error: %v", err)
	}

	// A successful fetch that drops a path must propagate the deletion.
	source.mu.Lock()
	source.entries["en"] = []routes.RouteEntry{{Path: "blog/second"}}
	source.mu.Unlock()

	entries, _, err := reg.MergedRoutes(context.Background(), "en")
	if err != nil {
		t.Fatalf("MergedRoutes returned error: %v", err)
	}
	for _, entry := range entries {
		if entry.Path == "blog/first" {
			t.Fatalf("expected deleted dynamic path to disappear, got %v", entryPaths(entries))
		}
	}
	if got := reg.LastKnown("en"); len(got) != 1 || got[0].Path != "blog/second" {
		t.Fatalf("expected last known to be replaced, got %v", got)
	}
}

func TestMergedRoutesFallbackBorrowsMissingPaths(t *testing.T) {
	source := &fakeSource{entries: map[string][]routes.RouteEntry{
		"en": {{Path: "blog/upsc-2025", Priority: 0.9}},
		"hi": {},
	}}
	reg := newTestRegistry(t, source)

	// Populate en's last known dynamic set first.
	if _, _, err := reg.MergedRoutes(context.Background(), "en"); err != nil {
		t.Fatalf("MergedRoutes(en) returned error: %v", err)
	}

	entries, _, err := reg.MergedRoutes(context.Background(), "hi")
	if err != nil {
		t.Fatalf("MergedRoutes(hi) returned error: %v", err)
	}

	// careers exists only in en's static set; blog/upsc-2025 only in en's
	// dynamic set. Both must appear for hi, re-homed to hi.
	careers := findEntry(t, entries, "careers")
	if careers.Locale != "hi" {
		t.Fatalf("expected borrowed entry to be re-homed, got locale %q", careers.Locale)
	}
	if careers.Origin != registry.FallbackOrigin("en") {
		t.Fatalf("expected fallback origin, got %q", careers.Origin)
	}

	borrowed := findEntry(t, entries, "blog/upsc-2025")
	if borrowed.Locale != "hi" || borrowed.Priority != 0.9 {
		t.Fatalf("expected borrowed dynamic entry with original hints, got %+v", borrowed)
	}

	// Paths hi already has stay hi's own.
	about := findEntry(t, entries, "about")
	if about.Origin != registry.OriginStatic {
		t.Fatalf("expected hi's own static entry, got origin %q", about.Origin)
	}
}

func TestMergedRoutesOrderIsStable(t *testing.T) {
	source := &fakeSource{entries: map[string][]routes.RouteEntry{
		"en": {{Path: "zebra"}, {Path: "alpha"}},
	}}
	reg := newTestRegistry(t, source)

	first, _, err := reg.MergedRoutes(context.Background(), "en")
	if err != nil {
		t.Fatalf("MergedRoutes returned error: %v", err)
	}
	second, _, err := reg.MergedRoutes(context.Background(), "en")
	if err != nil {
		t.Fatalf("MergedRoutes returned error: %v", err)
	}

	firstPaths := entryPaths(first)
	secondPaths := entryPaths(second)
	if len(firstPaths) != len(secondPaths) {
		t.Fatalf("expected stable merge, got %v then %v", firstPaths, secondPaths)
	}
	for i := range firstPaths {
		if firstPaths[i] != secondPaths[i] {
			t.Fatalf("expected stable order, got %v then %v", firstPaths, secondPaths)
		}
		if i > 0 && firstPaths[i-1] >= firstPaths[i] {
			t.Fatalf("expected strictly ascending paths, got %v", firstPaths)
		}
	}
}
