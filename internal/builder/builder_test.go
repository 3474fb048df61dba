package builder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-sitemap/internal/locales"
	internalroutes "github.com/goliatone/go-sitemap/internal/routes"
	"github.com/goliatone/go-sitemap/internal/runtimeconfig"
	"github.com/goliatone/go-sitemap/routes"
)

type stubSource struct {
	mu      sync.Mutex
	entries map[string][]routes.RouteEntry
	calls   int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchRoutes(_ context.Context, locale string) ([]routes.RouteEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	stored := s.entries[locale]
	copied := make([]routes.RouteEntry, len(stored))
	copy(copied, stored)
	return copied, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type writtenFile struct {
	req  WriteFileRequest
	body []byte
}

type recordingWriter struct {
	mu    sync.Mutex
	dirs  []string
	files []writtenFile
}

func (w *recordingWriter) EnsureDir(_ context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirs = append(w.dirs, path)
	return nil
}

func (w *recordingWriter) WriteFile(_ context.Context, req WriteFileRequest) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	body, err := io.ReadAll(req.Content)
	if err != nil {
		return err
	}
	w.files = append(w.files, writtenFile{req: req, body: body})
	return nil
}

func (w *recordingWriter) paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.files))
	for _, file := range w.files {
		paths = append(paths, file.req.Path)
	}
	return paths
}

func (w *recordingWriter) find(path string) (writtenFile, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, file := range w.files {
		if file.req.Path == path {
			return file, true
		}
	}
	return writtenFile{}, false
}

func newTestBuilder(t *testing.T, cfg Config, source *stubSource, now time.Time) *Builder {
	t.Helper()

	resolver, err := locales.NewResolver([]runtimeconfig.LocaleConfig{
		{Code: "en", CanonicalBase: "https://academy.example.com/en"},
		{Code: "hi", CanonicalBase: "https://academy.example.com/hi", Fallback: "en"},
	}, "en")
	if err != nil {
		t.Fatalf("NewResolver returned error: %v", err)
	}

	regDeps := internalroutes.Dependencies{Resolver: resolver}
	if source != nil {
		regDeps.Source = source
	}
	reg, err := internalroutes.NewRegistry(internalroutes.Config{
		StaticPaths:      []string{"", "about"},
		DefaultFrequency: routes.FreqWeekly,
		DefaultPriority:  0.5,
	}, regDeps)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	builder, err := New(cfg, Dependencies{Resolver: resolver, Registry: reg})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	builder.now = func() time.Time { return now }
	return builder
}

func blogSource() *stubSource {
	return &stubSource{entries: map[string][]routes.RouteEntry{
		"en": {
			{
				Path:         "blog/launch",
				Title:        "Launch",
				Summary:      "We  are   live",
				ChangeFreq:   routes.FreqDaily,
				Priority:     0.9,
				LastModified: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
			},
			{
				Path:         "blog/retro",
				Title:        "Retro",
				LastModified: time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC),
			},
		},
	}}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Config{}, Dependencies{}); !errors.Is(err, ErrResolverRequired) {
		t.Fatalf("expected ErrResolverRequired, got %v", err)
	}

	resolver, err := locales.NewResolver([]runtimeconfig.LocaleConfig{
		{Code: "en", CanonicalBase: "https://academy.example.com/en"},
	}, "en")
	if err != nil {
		t.Fatalf("NewResolver returned error: %v", err)
	}
	if _, err := New(Config{}, Dependencies{Resolver: resolver}); !errors.Is(err, ErrRegistryRequired) {
		t.Fatalf("expected ErrRegistryRequired, got %v", err)
	}
}

func TestBuildSerializesMergedRoutes(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	builder := newTestBuilder(t, Config{}, blogSource(), now)

	doc, err := builder.Build(context.Background(), "en")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if doc.Locale != "en" {
		t.Fatalf("expected locale en, got %q", doc.Locale)
	}
	if !doc.GeneratedAt.Equal(now) {
		t.Fatalf("expected generated at %v, got %v", now, doc.GeneratedAt)
	}
	if len(doc.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %v", doc.Entries)
	}

	xml := string(doc.XML)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		"<loc>https://academy.example.com/en</loc>",
		"<loc>https://academy.example.com/en/about</loc>",
		"<loc>https://academy.example.com/en/blog/launch</loc>",
		"<lastmod>2024-05-10T08:00:00Z</lastmod>",
		"<changefreq>daily</changefreq>",
		"<changefreq>weekly</changefreq>",
		"<priority>0.9</priority>",
		"<priority>0.5</priority>",
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected XML to contain %q:\n%s", want, xml)
		}
	}
	if got := strings.Count(xml, "<lastmod>"); got != 2 {
		t.Fatalf("expected 2 lastmod elements (static entries carry none), got %d:\n%s", got, xml)
	}
	if doc.Checksum == "" || doc.Checksum != computeHash(doc.XML) {
		t.Fatalf("expected checksum of body, got %q", doc.Checksum)
	}
}

func TestBuildIsByteStableAcrossRebuilds(t *testing.T) {
	builder := newTestBuilder(t, Config{}, blogSource(), time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	first, err := builder.Build(context.Background(), "en")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	builder.now = func() time.Time { return time.Date(2024, 6, 2, 9, 15, 0, 0, time.UTC) }
	second, err := builder.Build(context.Background(), "en")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if string(first.XML) != string(second.XML) {
		t.Fatalf("expected byte-identical XML across rebuilds:\n%s\n---\n%s", first.XML, second.XML)
	}
	if first.Checksum != second.Checksum {
		t.Fatalf("expected stable checksum, got %q then %q", first.Checksum, second.Checksum)
	}
	if first.ID != second.ID {
		t.Fatalf("expected stable document ID, got %s then %s", first.ID, second.ID)
	}
	if first.GeneratedAt.Equal(second.GeneratedAt) {
		t.Fatal("expected envelope timestamps to move with the clock")
	}
}

func TestBuildUnknownLocale(t *testing.T) {
	builder := newTestBuilder(t, Config{}, nil, time.Now())

	if _, err := builder.Build(context.Background(), "fr"); !errors.Is(err, routes.ErrUnknownLocale) {
		t.Fatalf("expected ErrUnknownLocale, got %v", err)
	}
}

func TestBuildRobotsAllowAll(t *testing.T) {
	builder := newTestBuilder(t, Config{}, nil, time.Now())

	policy, err := builder.BuildRobots("en")
	if err != nil {
		t.Fatalf("BuildRobots returned error: %v", err)
	}
	if !policy.AllowAll {
		t.Fatal("expected allow-all policy")
	}
	if policy.SitemapURL != "https://academy.example.com/en/sitemap.xml" {
		t.Fatalf("unexpected sitemap URL %q", policy.SitemapURL)
	}
	want := "User-agent: *\nAllow: /\n\nSitemap: https://academy.example.com/en/sitemap.xml\n"
	if string(policy.Body) != want {
		t.Fatalf("unexpected robots body:\n%s", policy.Body)
	}
	if policy.Checksum != computeHash(policy.Body) {
		t.Fatalf("expected checksum of body, got %q", policy.Checksum)
	}
}

func TestBuildRobotsDisallowedPaths(t *testing.T) {
	builder := newTestBuilder(t, Config{
		DisallowedPaths: []string{"admin", "/drafts", "admin", "  "},
	}, nil, time.Now())

	policy, err := builder.BuildRobots("hi")
	if err != nil {
		t.Fatalf("BuildRobots returned error: %v", err)
	}
	if policy.AllowAll {
		t.Fatal("expected restricted policy")
	}
	if len(policy.DisallowedPaths) != 2 || policy.DisallowedPaths[0] != "/admin" || policy.DisallowedPaths[1] != "/drafts" {
		t.Fatalf("unexpected disallowed paths %v", policy.DisallowedPaths)
	}
	want := "User-agent: *\nDisallow: /admin\nDisallow: /drafts\n\nSitemap: https://academy.example.com/hi/sitemap.xml\n"
	if string(policy.Body) != want {
		t.Fatalf("unexpected robots body:\n%s", policy.Body)
	}
}

func TestBuildFeedsSkipsUntitledEntries(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	builder := newTestBuilder(t, Config{SiteTitle: "Academy"}, blogSource(), now)

	rss, atom, err := builder.BuildFeeds(context.Background(), "en")
	if err != nil {
		t.Fatalf("BuildFeeds returned error: %v", err)
	}
	if rss == nil || atom == nil {
		t.Fatal("expected both feed documents")
	}
	if rss.Format != routes.FeedRSS || atom.Format != routes.FeedAtom {
		t.Fatalf("unexpected formats %q/%q", rss.Format, atom.Format)
	}
	if len(rss.Items) != 2 {
		t.Fatalf("expected 2 items (static entries are untitled), got %v", rss.Items)
	}
	if rss.Items[0].Title != "Retro" || rss.Items[1].Title != "Launch" {
		t.Fatalf("expected newest-first ordering, got %v", rss.Items)
	}
	if !strings.HasPrefix(rss.Items[0].GUID, "urn:uuid:") {
		t.Fatalf("expected urn:uuid GUIDs, got %q", rss.Items[0].GUID)
	}
	if rss.Items[1].Summary != "We are live" {
		t.Fatalf("expected collapsed whitespace in summary, got %q", rss.Items[1].Summary)
	}

	xml := string(rss.XML)
	newest := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	if !strings.Contains(xml, "<lastBuildDate>"+newest.Format(time.RFC1123Z)+"</lastBuildDate>") {
		t.Fatalf("expected lastBuildDate anchored to newest item:\n%s", xml)
	}
	if !strings.Contains(xml, "<title>Academy</title>") {
		t.Fatalf("expected channel title from configuration:\n%s", xml)
	}
	if strings.Index(xml, "<title>Retro</title>") > strings.Index(xml, "<title>Launch</title>") {
		t.Fatalf("expected Retro before Launch in feed body:\n%s", xml)
	}

	atomXML := string(atom.XML)
	if !strings.Contains(atomXML, `<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="en">`) {
		t.Fatalf("expected atom envelope:\n%s", atomXML)
	}
	if !strings.Contains(atomXML, "<updated>"+newest.Format(time.RFC3339)+"</updated>") {
		t.Fatalf("expected feed updated anchored to newest item:\n%s", atomXML)
	}
	if !strings.Contains(atomXML, `<link rel="self" href="https://academy.example.com/en/atom.xml" />`) {
		t.Fatalf("expected self link:\n%s", atomXML)
	}
}

func TestBuildFeedsNilWithoutTitledEntries(t *testing.T) {
	builder := newTestBuilder(t, Config{}, nil, time.Now())

	rss, atom, err := builder.BuildFeeds(context.Background(), "en")
	if err != nil {
		t.Fatalf("BuildFeeds returned error: %v", err)
	}
	if rss != nil || atom != nil {
		t.Fatalf("expected nil feeds for untitled routes, got %v / %v", rss, atom)
	}
}

func TestBuildFeedsCapsItems(t *testing.T) {
	builder := newTestBuilder(t, Config{MaxFeedItems: 1}, blogSource(), time.Now())

	rss, _, err := builder.BuildFeeds(context.Background(), "en")
	if err != nil {
		t.Fatalf("BuildFeeds returned error: %v", err)
	}
	if rss == nil || len(rss.Items) != 1 {
		t.Fatalf("expected a single capped item, got %v", rss)
	}
	if rss.Items[0].Title != "Retro" {
		t.Fatalf("expected the newest item to survive the cap, got %q", rss.Items[0].Title)
	}
}

func TestBuildSetSharesOneRegistryPass(t *testing.T) {
	source := blogSource()
	builder := newTestBuilder(t, Config{GenerateRobots: true, GenerateFeeds: true}, source, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	set, err := builder.BuildSet(context.Background(), "en")
	if err != nil {
		t.Fatalf("BuildSet returned error: %v", err)
	}
	if set.Sitemap == nil || set.Robots == nil || set.RSS == nil || set.Atom == nil {
		t.Fatalf("expected all artifacts, got %+v", set)
	}
	if source.callCount() != 1 {
		t.Fatalf("expected one source fetch for the whole set, got %d", source.callCount())
	}
	if set.Locale != "en" || !set.GeneratedAt.Equal(set.Sitemap.GeneratedAt) {
		t.Fatalf("expected set envelope to match sitemap, got %+v", set)
	}
}

func TestBuildSetHonorsDisabledArtifacts(t *testing.T) {
	builder := newTestBuilder(t, Config{}, blogSource(), time.Now())

	set, err := builder.BuildSet(context.Background(), "en")
	if err != nil {
		t.Fatalf("BuildSet returned error: %v", err)
	}
	if set.Sitemap == nil {
		t.Fatal("expected sitemap document")
	}
	if set.Robots != nil || set.RSS != nil || set.Atom != nil {
		t.Fatalf("expected robots and feeds to stay disabled, got %+v", set)
	}
}

func TestPersistAllWritesArtifactsAndManifest(t *testing.T) {
	builder := newTestBuilder(t, Config{GenerateRobots: true, GenerateFeeds: true}, blogSource(), time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	set, err := builder.BuildSet(context.Background(), "en")
	if err != nil {
		t.Fatalf("BuildSet returned error: %v", err)
	}

	writer := &recordingWriter{}
	persister := NewPersister(writer, "en")
	if err := persister.PersistAll(context.Background(), []*routes.DocumentSet{set}); err != nil {
		t.Fatalf("PersistAll returned error: %v", err)
	}

	wantPaths := []string{
		"en/sitemap.xml", "sitemap.xml",
		"en/robots.txt", "robots.txt",
		"feeds/en.rss.xml", "feed.xml",
		"feeds/en.atom.xml", "feed.atom.xml",
		"manifest.json",
	}
	got := writer.paths()
	if len(got) != len(wantPaths) {
		t.Fatalf("expected %d writes, got %v", len(wantPaths), got)
	}
	for _, want := range wantPaths {
		if _, ok := writer.find(want); !ok {
			t.Fatalf("expected artifact %q, wrote %v", want, got)
		}
	}
	if len(writer.dirs) != 2 || writer.dirs[0] != "en" || writer.dirs[1] != "feeds" {
		t.Fatalf("expected each directory ensured once, got %v", writer.dirs)
	}

	sitemapFile, _ := writer.find("en/sitemap.xml")
	if sitemapFile.req.Checksum != set.Sitemap.Checksum {
		t.Fatalf("expected sitemap checksum %q, got %q", set.Sitemap.Checksum, sitemapFile.req.Checksum)
	}
	if string(sitemapFile.body) != string(set.Sitemap.XML) {
		t.Fatal("expected persisted sitemap body to match the document")
	}

	alias, _ := writer.find("sitemap.xml")
	if alias.req.Metadata["alias"] != "true" {
		t.Fatalf("expected alias metadata on root sitemap, got %v", alias.req.Metadata)
	}

	manifestFile, _ := writer.find("manifest.json")
	var manifest artifactManifest
	if err := json.Unmarshal(manifestFile.body, &manifest); err != nil {
		t.Fatalf("manifest did not parse: %v", err)
	}
	if manifest.Version != manifestVersion {
		t.Fatalf("expected manifest version %d, got %d", manifestVersion, manifest.Version)
	}
	if len(manifest.Artifacts) != len(wantPaths)-1 {
		t.Fatalf("expected %d manifest entries, got %v", len(wantPaths)-1, manifest.Artifacts)
	}
	for i := 1; i < len(manifest.Artifacts); i++ {
		if manifest.Artifacts[i-1].Path > manifest.Artifacts[i].Path {
			t.Fatalf("expected manifest sorted by path, got %v", manifest.Artifacts)
		}
	}
	if !manifest.GeneratedAt.Equal(set.GeneratedAt) {
		t.Fatalf("expected manifest generated at %v, got %v", set.GeneratedAt, manifest.GeneratedAt)
	}
}

func TestPersistSetSkipsAliasesForNonDefaultLocale(t *testing.T) {
	builder := newTestBuilder(t, Config{GenerateRobots: true, GenerateFeeds: true}, blogSource(), time.Now())

	set, err := builder.BuildSet(context.Background(), "hi")
	if err != nil {
		t.Fatalf("BuildSet returned error: %v", err)
	}
	if set.RSS != nil {
		t.Fatalf("expected no feed for a locale without titled routes, got %+v", set.RSS)
	}

	writer := &recordingWriter{}
	if err := NewPersister(writer, "en").PersistSet(context.Background(), set); err != nil {
		t.Fatalf("PersistSet returned error: %v", err)
	}

	got := writer.paths()
	if len(got) != 2 {
		t.Fatalf("expected locale-scoped writes only, got %v", got)
	}
	for _, path := range got {
		if !strings.HasPrefix(path, "hi/") {
			t.Fatalf("unexpected alias write %q", path)
		}
	}
}

func TestFSWriterWritesAndRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	writer, err := NewFSWriter(root)
	if err != nil {
		t.Fatalf("NewFSWriter returned error: %v", err)
	}

	body := []byte("<urlset/>")
	err = writer.WriteFile(context.Background(), WriteFileRequest{
		Path:    "feeds/en.rss.xml",
		Content: strings.NewReader(string(body)),
		Size:    int64(len(body)),
	})
	if err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(root, "feeds", "en.rss.xml"))
	if err != nil {
		t.Fatalf("expected artifact on disk: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("unexpected artifact body %q", got)
	}

	err = writer.WriteFile(context.Background(), WriteFileRequest{
		Path:    "../evil.txt",
		Content: strings.NewReader("nope"),
	})
	if err == nil {
		t.Fatal("expected escaping path to be rejected")
	}

	if _, err := NewFSWriter("  "); err == nil {
		t.Fatal("expected empty root to be rejected")
	}
}
