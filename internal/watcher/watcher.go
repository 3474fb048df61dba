package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-sitemap/internal/locales"
	"github.com/goliatone/go-sitemap/internal/logging"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

var (
	// ErrQueueRequired indicates the watcher was constructed without a revalidation queue.
	ErrQueueRequired = errors.New("watcher: revalidation queue is required")
	// ErrResolverRequired indicates the watcher was constructed without a locale resolver.
	ErrResolverRequired = errors.New("watcher: locale resolver is required")
	// ErrPathRequired indicates the watcher was constructed without a content path.
	ErrPathRequired = errors.New("watcher: content path is required")
)

const defaultDebounceWindow = 500 * time.Millisecond

// Config tunes what the watcher observes and how changes are batched.
type Config struct {
	// Path is the content root to watch, recursively.
	Path string
	// Extensions restricts which files count as content changes. Empty
	// means every file counts. Entries match case-insensitively and may
	// omit the leading dot.
	Extensions []string
	// DebounceWindow batches rapid changes before locales are enqueued.
	// Zero or negative falls back to the default.
	DebounceWindow time.Duration
}

// Dependencies lists the collaborators required by the watcher.
type Dependencies struct {
	Queue    interfaces.RevalidationQueue
	Resolver *locales.Resolver
	Logger   interfaces.Logger
	// Now overrides the clock stamped on enqueued events. Nil means time.Now.
	Now func() time.Time
}

// Watcher turns filesystem changes under a content root into revalidation
// events. The first path segment below the root selects the locale; files
// outside any configured locale directory revalidate the default locale.
type Watcher struct {
	cfg        Config
	queue      interfaces.RevalidationQueue
	resolver   *locales.Resolver
	logger     interfaces.Logger
	fs         *fsnotify.Watcher
	root       string
	extensions map[string]struct{}

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup

	now func() time.Time
}

// New wires a watcher over cfg.Path and starts observing immediately.
// Callers must Close it.
func New(cfg Config, deps Dependencies) (*Watcher, error) {
	if deps.Queue == nil {
		return nil, ErrQueueRequired
	}
	if deps.Resolver == nil {
		return nil, ErrResolverRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	clock := deps.Now
	if clock == nil {
		clock = time.Now
	}

	root := strings.TrimSpace(cfg.Path)
	if root == "" {
		return nil, ErrPathRequired
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return nil, err
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = defaultDebounceWindow
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:        cfg,
		queue:      deps.Queue,
		resolver:   deps.Resolver,
		logger:     logger,
		fs:         notifier,
		root:       abs,
		extensions: normalizeExtensions(cfg.Extensions),
		pending:    map[string]struct{}{},
		done:       make(chan struct{}),
		now:        clock,
	}

	if err := w.addTree(abs); err != nil {
		_ = notifier.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Close stops observing and flushes nothing further. Idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher.error", "error", err.Error())
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// New directories join the watch set; their files report on
			// their own once watched.
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watcher.add.failed", "path", event.Name, "error", err.Error())
			}
			return
		}
	}

	change := event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) ||
		event.Op.Has(fsnotify.Rename)
	if !change {
		return
	}

	if len(w.extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(event.Name))
		if _, ok := w.extensions[ext]; !ok {
			return
		}
	}

	locale := w.localeFor(event.Name)
	w.logger.Debug("watcher.change",
		"path", event.Name,
		"locale", locale,
		"op", event.Op.String(),
	)
	w.markDirty(locale)
}

// localeFor maps the first path segment under the root to a configured
// locale. Everything else belongs to the default locale.
func (w *Watcher) localeFor(name string) string {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return w.resolver.Default().Code
	}
	segment, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	if w.resolver.Has(segment) {
		return segment
	}
	return w.resolver.Default().Code
}

// markDirty notes the locale and re-arms the debounce timer so a burst of
// writes flushes once.
func (w *Watcher) markDirty(locale string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[locale] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.DebounceWindow, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	dirty := make([]string, 0, len(w.pending))
	for locale := range w.pending {
		dirty = append(dirty, locale)
	}
	w.pending = map[string]struct{}{}
	w.timer = nil
	w.mu.Unlock()

	sort.Strings(dirty)
	for _, locale := range dirty {
		event := routes.RevalidationEvent{
			Locale:      locale,
			Reason:      "content change",
			RequestedAt: w.now(),
		}
		if err := w.queue.Enqueue(event); err != nil {
			w.logger.Warn("watcher.enqueue.failed", "locale", locale, "error", err.Error())
			continue
		}
		w.logger.Debug("watcher.enqueued", "locale", locale)
	}
}

// addTree registers dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(filepath.Base(path), ".") {
			return fs.SkipDir
		}
		return w.fs.Add(path)
	})
}

func normalizeExtensions(extensions []string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, ext := range extensions {
		e := strings.ToLower(strings.TrimSpace(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}
