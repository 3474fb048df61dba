package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-sitemap/internal/locales"
	"github.com/goliatone/go-sitemap/internal/runtimeconfig"
	"github.com/goliatone/go-sitemap/routes"
)

type recordQueue struct {
	mu     sync.Mutex
	events []routes.RevalidationEvent
	err    error
}

func (q *recordQueue) Enqueue(event routes.RevalidationEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, event)
	return nil
}

func (q *recordQueue) snapshot() []routes.RevalidationEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	copied := make([]routes.RevalidationEvent, len(q.events))
	copy(copied, q.events)
	return copied
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

func newTestWatcher(t *testing.T, cfg Config, queue *recordQueue) *Watcher {
	t.Helper()
	if cfg.Path == "" {
		root := t.TempDir()
		for _, dir := range []string{"en", "hi", "shared"} {
			if err := os.Mkdir(filepath.Join(root, dir), 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", dir, err)
			}
		}
		cfg.Path = root
	}
	w, err := New(cfg, Dependencies{Queue: queue, Resolver: newTestResolver(t)})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
	})
	return w
}

func waitFor(t *testing.T, describe string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", describe)
}

func pendingLocales(w *Watcher) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirty := make([]string, 0, len(w.pending))
	for locale := range w.pending {
		dirty = append(dirty, locale)
	}
	sort.Strings(dirty)
	return dirty
}

func TestNewValidatesDependencies(t *testing.T) {
	queue := &recordQueue{}
	resolver := newTestResolver(t)

	if _, err := New(Config{Path: "content"}, Dependencies{}); !errors.Is(err, ErrQueueRequired) {
		t.Fatalf("expected queue error, got %v", err)
	}
	if _, err := New(Config{Path: "content"}, Dependencies{Queue: queue}); !errors.Is(err, ErrResolverRequired) {
		t.Fatalf("expected resolver error, got %v", err)
	}
	if _, err := New(Config{}, Dependencies{Queue: queue, Resolver: resolver}); !errors.Is(err, ErrPathRequired) {
		t.Fatalf("expected path error, got %v", err)
	}
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if _, err := New(Config{Path: missing}, Dependencies{Queue: queue, Resolver: resolver}); err == nil {
		t.Fatal("expected error for missing content root")
	}
}

func TestLocaleForMapsTopLevelDirectory(t *testing.T) {
	w := newTestWatcher(t, Config{}, &recordQueue{})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"locale directory", filepath.Join(w.root, "en", "blog", "post.md"), "en"},
		{"second locale", filepath.Join(w.root, "hi", "index.md"), "hi"},
		{"unconfigured directory", filepath.Join(w.root, "shared", "banner.md"), "en"},
		{"root level file", filepath.Join(w.root, "readme.md"), "en"},
		{"outside the root", filepath.Join(os.TempDir(), "elsewhere.md"), "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.localeFor(tc.path); got != tc.want {
				t.Fatalf("localeFor(%s) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestHandleFiltersByExtension(t *testing.T) {
	w := newTestWatcher(t, Config{
		Extensions:     []string{".md", "markdown"},
		DebounceWindow: time.Hour,
	}, &recordQueue{})

	w.handle(fsnotify.Event{Name: filepath.Join(w.root, "en", "styles.css"), Op: fsnotify.Write})
	if got := pendingLocales(w); len(got) != 0 {
		t.Fatalf("css write must not mark locales, got %v", got)
	}

	w.handle(fsnotify.Event{Name: filepath.Join(w.root, "en", "post.md"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(w.root, "hi", "page.MARKDOWN"), Op: fsnotify.Create})
	if got := pendingLocales(w); len(got) != 2 || got[0] != "en" || got[1] != "hi" {
		t.Fatalf("expected en and hi pending, got %v", got)
	}
}

func TestHandleIgnoresChmod(t *testing.T) {
	w := newTestWatcher(t, Config{DebounceWindow: time.Hour}, &recordQueue{})

	w.handle(fsnotify.Event{Name: filepath.Join(w.root, "en", "post.md"), Op: fsnotify.Chmod})
	if got := pendingLocales(w); len(got) != 0 {
		t.Fatalf("chmod must not mark locales, got %v", got)
	}
}

func TestDebounceBatchesBurstsPerLocale(t *testing.T) {
	queue := &recordQueue{}
	w := newTestWatcher(t, Config{DebounceWindow: 40 * time.Millisecond}, queue)
	when := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return when }

	for i := 0; i < 3; i++ {
		w.handle(fsnotify.Event{Name: filepath.Join(w.root, "en", "post.md"), Op: fsnotify.Write})
	}
	w.handle(fsnotify.Event{Name: filepath.Join(w.root, "hi", "post.md"), Op: fsnotify.Write})

	waitFor(t, "debounced flush", func() bool {
		return len(queue.snapshot()) == 2
	})
	// A straggler flush would enqueue duplicates; give it room to show up.
	time.Sleep(100 * time.Millisecond)

	events := queue.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected one event per locale, got %+v", events)
	}
	if events[0].Locale != "en" || events[1].Locale != "hi" {
		t.Fatalf("expected sorted locales en, hi, got %+v", events)
	}
	for _, event := range events {
		if event.Reason != "content change" {
			t.Fatalf("unexpected reason %q", event.Reason)
		}
		if !event.RequestedAt.Equal(when) {
			t.Fatalf("expected pinned timestamp, got %s", event.RequestedAt)
		}
	}
}

func TestEnqueueFailureDropsEvent(t *testing.T) {
	queue := &recordQueue{err: errors.New("queue full")}
	w := newTestWatcher(t, Config{DebounceWindow: 10 * time.Millisecond}, queue)

	w.handle(fsnotify.Event{Name: filepath.Join(w.root, "en", "post.md"), Op: fsnotify.Write})

	waitFor(t, "flush to drain pending", func() bool {
		return len(pendingLocales(w)) == 0
	})
	if got := queue.snapshot(); len(got) != 0 {
		t.Fatalf("expected no recorded events, got %+v", got)
	}
}

func TestWriteUnderLocaleDirectoryEnqueues(t *testing.T) {
	queue := &recordQueue{}
	w := newTestWatcher(t, Config{
		Extensions:     []string{".md"},
		DebounceWindow: 20 * time.Millisecond,
	}, queue)

	target := filepath.Join(w.root, "hi", "launch.md")
	if err := os.WriteFile(target, []byte("# Launch\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitFor(t, "revalidation event for hi", func() bool {
		for _, event := range queue.snapshot() {
			if event.Locale == "hi" {
				return true
			}
		}
		return false
	})
}

func TestCreatedDirectoryJoinsWatchSet(t *testing.T) {
	w := newTestWatcher(t, Config{DebounceWindow: time.Hour}, &recordQueue{})

	created := filepath.Join(w.root, "en", "guides")
	if err := os.Mkdir(created, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	waitFor(t, "new directory to be watched", func() bool {
		for _, watched := range w.fs.WatchList() {
			if watched == created {
				return true
			}
		}
		return false
	})
}

func TestCloseIsIdempotent(t *testing.T) {
	w := newTestWatcher(t, Config{}, &recordQueue{})
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
