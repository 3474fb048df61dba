package revalidate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-sitemap/internal/builder"
	"github.com/goliatone/go-sitemap/internal/locales"
	"github.com/goliatone/go-sitemap/internal/logging"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

var (
	// ErrResolverRequired indicates the coordinator was constructed without a locale resolver.
	ErrResolverRequired = errors.New("revalidate: locale resolver is required")
	// ErrBuilderRequired indicates the coordinator was constructed without a document builder.
	ErrBuilderRequired = errors.New("revalidate: document builder is required")
	// ErrQueueFull indicates the event queue rejected an enqueue.
	ErrQueueFull = errors.New("revalidate: event queue is full")
	// ErrClosed indicates the coordinator no longer accepts work.
	ErrClosed = errors.New("revalidate: coordinator is closed")
)

// LocaleAll is the wildcard accepted by Enqueue to revalidate every locale.
const LocaleAll = "all"

// Locale revalidation states.
const (
	StateIdle       = "idle"
	StatePending    = "pending"
	StateRebuilding = "rebuilding"
)

const (
	defaultWorkers      = 4
	defaultBuildTimeout = 30 * time.Second
	defaultQueueSize    = 64
)

// Config tunes coalescing and rebuild execution.
type Config struct {
	// CoalesceWindow delays a rebuild after the first event so bursts
	// collapse into one pass. Zero triggers immediately.
	CoalesceWindow time.Duration
	// BuildTimeout bounds each rebuild. Rebuilds run on a detached context,
	// so this is the only deadline they observe.
	BuildTimeout time.Duration
	// Workers caps RebuildAll fan-out.
	Workers int
	// QueueSize is the event buffer; Enqueue fails with ErrQueueFull beyond it.
	QueueSize int
}

// Dependencies lists the collaborators required by the coordinator.
type Dependencies struct {
	Resolver  *locales.Resolver
	Builder   *builder.Builder
	Persister *builder.Persister
	Logger    interfaces.Logger
	// Now overrides the coordinator clock. Nil means time.Now.
	Now func() time.Time
}

type localeState struct {
	state     string
	dirty     bool
	rebuilds  int
	lastError string
	timer     *time.Timer
}

// Coordinator owns the per-locale revalidation lifecycle: it coalesces
// change events, serializes same-locale rebuilds through singleflight, and
// publishes immutable document sets readers swap between atomically. A
// failed rebuild keeps the previous published set intact.
type Coordinator struct {
	cfg       Config
	resolver  *locales.Resolver
	builder   *builder.Builder
	persister *builder.Persister
	logger    interfaces.Logger

	group singleflight.Group

	mu        sync.RWMutex
	published map[string]*routes.DocumentSet
	states    map[string]*localeState
	closed    bool

	events chan routes.RevalidationEvent
	done   chan struct{}
	wg     sync.WaitGroup

	now func() time.Time
}

var _ interfaces.RevalidationQueue = (*Coordinator)(nil)

// New wires a coordinator and starts its event loop. Callers must Close it.
func New(cfg Config, deps Dependencies) (*Coordinator, error) {
	if deps.Resolver == nil {
		return nil, ErrResolverRequired
	}
	if deps.Builder == nil {
		return nil, ErrBuilderRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	clock := deps.Now
	if clock == nil {
		clock = time.Now
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = defaultBuildTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.CoalesceWindow < 0 {
		cfg.CoalesceWindow = 0
	}

	c := &Coordinator{
		cfg:       cfg,
		resolver:  deps.Resolver,
		builder:   deps.Builder,
		persister: deps.Persister,
		logger:    logger,
		published: map[string]*routes.DocumentSet{},
		states:    map[string]*localeState{},
		events:    make(chan routes.RevalidationEvent, cfg.QueueSize),
		done:      make(chan struct{}),
		now:       clock,
	}

	c.wg.Add(1)
	go c.run()
	return c, nil
}

// Enqueue accepts a staleness event and returns before any rebuild work
// happens. The locale must be configured or the LocaleAll wildcard.
func (c *Coordinator) Enqueue(event routes.RevalidationEvent) error {
	event.Locale = strings.TrimSpace(event.Locale)
	if event.Locale == "" {
		return routes.ErrLocaleCodeRequired
	}
	if event.Locale != LocaleAll && !c.resolver.Has(event.Locale) {
		return &routes.LocaleNotFoundError{Code: event.Locale}
	}
	if event.RequestedAt.IsZero() {
		event.RequestedAt = c.now()
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	select {
	case c.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Sitemap returns the published sitemap for locale, building it on first
// read. Concurrent cold reads share one rebuild.
func (c *Coordinator) Sitemap(ctx context.Context, locale string) (*routes.SitemapDocument, error) {
	set, err := c.documents(ctx, locale)
	if err != nil {
		return nil, err
	}
	return set.Sitemap, nil
}

// Robots returns the published robots policy for locale.
func (c *Coordinator) Robots(ctx context.Context, locale string) (*routes.RobotsPolicy, error) {
	set, err := c.documents(ctx, locale)
	if err != nil {
		return nil, err
	}
	if set.Robots == nil {
		return nil, fmt.Errorf("revalidate: robots generation disabled for %s: %w", locale, routes.ErrRobotsUnavailable)
	}
	return set.Robots, nil
}

// Feed returns the published feed for locale in the requested format.
// Returns routes.ErrFeedUnavailable when feed generation is disabled or the
// locale has no feed-worthy entries.
func (c *Coordinator) Feed(ctx context.Context, locale string, format routes.FeedFormat) (*routes.FeedDocument, error) {
	set, err := c.documents(ctx, locale)
	if err != nil {
		return nil, err
	}
	var doc *routes.FeedDocument
	switch format {
	case routes.FeedAtom:
		doc = set.Atom
	default:
		doc = set.RSS
	}
	if doc == nil {
		return nil, fmt.Errorf("revalidate: %s feed for %s: %w", format, locale, routes.ErrFeedUnavailable)
	}
	return doc, nil
}

// Rebuild forces a synchronous rebuild for locale and returns the fresh set.
// Concurrent calls for the same locale share one underlying build.
func (c *Coordinator) Rebuild(ctx context.Context, locale string) (*routes.DocumentSet, error) {
	code := strings.TrimSpace(locale)
	if _, err := c.resolver.Resolve(code); err != nil {
		return nil, err
	}
	return c.awaitRebuild(ctx, code)
}

// RebuildAll rebuilds every configured locale with bounded parallelism.
// Per-locale failures are joined; a failing locale never aborts its siblings.
func (c *Coordinator) RebuildAll(ctx context.Context) error {
	codes := c.resolver.Codes()
	errs := make([]error, len(codes))

	var group errgroup.Group
	group.SetLimit(c.cfg.Workers)
	for i, code := range codes {
		group.Go(func() error {
			if _, err := c.awaitRebuild(ctx, code); err != nil {
				errs[i] = fmt.Errorf("%s: %w", code, err)
			}
			return nil
		})
	}
	_ = group.Wait()
	return errors.Join(errs...)
}

// Status reports the revalidation state for one locale.
func (c *Coordinator) Status(locale string) (*routes.LocaleStatus, error) {
	code := strings.TrimSpace(locale)
	if _, err := c.resolver.Resolve(code); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	status := c.statusLocked(code)
	return &status, nil
}

// StatusAll reports every configured locale, sorted by code.
func (c *Coordinator) StatusAll() []routes.LocaleStatus {
	codes := c.resolver.Codes()
	sort.Strings(codes)

	c.mu.RLock()
	defer c.mu.RUnlock()
	statuses := make([]routes.LocaleStatus, 0, len(codes))
	for _, code := range codes {
		statuses = append(statuses, c.statusLocked(code))
	}
	return statuses
}

// Published returns the current document set for locale without triggering
// a build.
func (c *Coordinator) Published(locale string) (*routes.DocumentSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, ok := c.published[strings.TrimSpace(locale)]
	return set, ok
}

// Close stops the event loop, cancels pending timers, and waits for
// event-triggered rebuilds to settle. Published documents stay readable.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	for _, st := range c.states {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		if st.state == StatePending {
			st.state = StateIdle
		}
		st.dirty = false
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Coordinator) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case event := <-c.events:
			c.dispatch(event)
		}
	}
}

func (c *Coordinator) dispatch(event routes.RevalidationEvent) {
	if event.Locale == LocaleAll {
		for _, code := range c.resolver.Codes() {
			c.schedule(code, event.Reason)
		}
		return
	}
	c.schedule(event.Locale, event.Reason)
}

// schedule arms at most one rebuild per locale. Events landing while a
// rebuild runs mark the locale dirty so it re-arms on completion instead of
// being lost.
func (c *Coordinator) schedule(locale, reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	st := c.stateLocked(locale)
	switch st.state {
	case StatePending:
		c.mu.Unlock()
		return
	case StateRebuilding:
		st.dirty = true
		c.mu.Unlock()
		return
	}
	st.state = StatePending
	window := c.cfg.CoalesceWindow
	if window <= 0 {
		c.mu.Unlock()
		c.logger.Debug("revalidate.scheduled", "locale", locale, "reason", reason)
		go c.fire(locale)
		return
	}
	st.timer = time.AfterFunc(window, func() { c.fire(locale) })
	c.mu.Unlock()

	c.logger.Debug("revalidate.scheduled",
		"locale", locale,
		"reason", reason,
		"window", window.String(),
	)
}

func (c *Coordinator) fire(locale string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	st := c.stateLocked(locale)
	if st.state == StateRebuilding {
		st.dirty = true
		c.mu.Unlock()
		return
	}
	st.timer = nil
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	_, _ = c.rebuildShared(locale)
}

// awaitRebuild joins the locale's in-flight rebuild or starts one. The
// rebuild itself is not caller-cancelable: on ctx cancellation the caller
// unblocks while the build finishes and publishes for later readers.
func (c *Coordinator) awaitRebuild(ctx context.Context, locale string) (*routes.DocumentSet, error) {
	ch := c.group.DoChan(locale, func() (any, error) {
		return c.rebuild(locale)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*routes.DocumentSet), nil
	}
}

func (c *Coordinator) rebuildShared(locale string) (*routes.DocumentSet, error) {
	ch := c.group.DoChan(locale, func() (any, error) {
		return c.rebuild(locale)
	})
	result := <-ch
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Val.(*routes.DocumentSet), nil
}

func (c *Coordinator) rebuild(locale string) (*routes.DocumentSet, error) {
	c.setRebuilding(locale)

	// Detached from any caller: disconnects must not abort the build.
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.BuildTimeout)
	defer cancel()

	set, err := c.builder.BuildSet(ctx, locale)
	if err != nil {
		c.logger.Error("revalidate.rebuild.failed", "locale", locale, "error", err.Error())
		c.finishRebuild(locale, nil, err)
		return nil, err
	}

	if c.persister != nil {
		if persistErr := c.persister.PersistSet(ctx, set); persistErr != nil {
			// Persistence is best effort; the in-memory set still publishes.
			c.logger.Error("revalidate.persist.failed", "locale", locale, "error", persistErr.Error())
		}
	}

	c.finishRebuild(locale, set, nil)

	checksum := ""
	entries := 0
	if set.Sitemap != nil {
		checksum = set.Sitemap.Checksum
		entries = len(set.Sitemap.Entries)
	}
	c.logger.Info("revalidate.published",
		"locale", locale,
		"checksum", checksum,
		"entries", entries,
	)
	return set, nil
}

func (c *Coordinator) setRebuilding(locale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.stateLocked(locale)
	st.state = StateRebuilding
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}

func (c *Coordinator) finishRebuild(locale string, set *routes.DocumentSet, err error) {
	c.mu.Lock()
	st := c.stateLocked(locale)
	st.state = StateIdle
	if err != nil {
		st.lastError = err.Error()
	} else {
		st.rebuilds++
		st.lastError = ""
		c.published[locale] = set
	}
	rearm := st.dirty && !c.closed
	st.dirty = false
	c.mu.Unlock()

	if rearm {
		c.schedule(locale, "coalesced")
	}
}

func (c *Coordinator) documents(ctx context.Context, locale string) (*routes.DocumentSet, error) {
	code := strings.TrimSpace(locale)
	if _, err := c.resolver.Resolve(code); err != nil {
		return nil, err
	}

	c.mu.RLock()
	set := c.published[code]
	c.mu.RUnlock()
	if set != nil {
		return set, nil
	}

	return c.awaitRebuild(ctx, code)
}

func (c *Coordinator) stateLocked(code string) *localeState {
	st := c.states[code]
	if st == nil {
		st = &localeState{state: StateIdle}
		c.states[code] = st
	}
	return st
}

func (c *Coordinator) statusLocked(code string) routes.LocaleStatus {
	status := routes.LocaleStatus{Locale: code, State: StateIdle}
	if st := c.states[code]; st != nil {
		status.State = st.state
		status.Rebuilds = st.rebuilds
		status.LastError = st.lastError
	}
	if set := c.published[code]; set != nil {
		status.GeneratedAt = set.GeneratedAt
		if set.Sitemap != nil {
			status.Checksum = set.Sitemap.Checksum
			status.EntryCount = len(set.Sitemap.Entries)
			status.WarningCount = len(set.Sitemap.Warnings)
		}
	}
	return status
}
