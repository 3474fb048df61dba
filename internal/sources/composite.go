package sources

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-sitemap/internal/logging"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

// CompositeSource fans a fetch across several adapters concurrently and
// merges their entries per path, later adapters overriding earlier ones.
// One failing adapter only costs its own entries; the fetch errors only
// when every adapter fails.
type CompositeSource struct {
	sources []interfaces.ContentSource
	logger  interfaces.Logger
}

var _ interfaces.ContentSource = (*CompositeSource)(nil)

// NewCompositeSource wires the adapters in precedence order, skipping nils.
func NewCompositeSource(logger interfaces.Logger, adapters ...interfaces.ContentSource) *CompositeSource {
	if logger == nil {
		logger = logging.NoOp()
	}
	kept := make([]interfaces.ContentSource, 0, len(adapters))
	for _, adapter := range adapters {
		if adapter != nil {
			kept = append(kept, adapter)
		}
	}
	return &CompositeSource{sources: kept, logger: logger}
}

// Name identifies the adapter on degradation warnings.
func (s *CompositeSource) Name() string { return "composite" }

// FetchRoutes collects entries from every adapter. Adapter failures are
// logged and absorbed so siblings keep contributing; when all adapters fail
// the joined error surfaces and the registry falls back to last known data.
func (s *CompositeSource) FetchRoutes(ctx context.Context, locale string) ([]routes.RouteEntry, error) {
	if len(s.sources) == 0 {
		return nil, nil
	}

	results := make([][]routes.RouteEntry, len(s.sources))
	errs := make([]error, len(s.sources))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, source := range s.sources {
		group.Go(func() error {
			entries, err := source.FetchRoutes(groupCtx, locale)
			if err != nil {
				// Recorded, not returned: one adapter must not cancel its siblings.
				errs[i] = fmt.Errorf("%s: %w", source.Name(), err)
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := make([]routes.RouteEntry, 0)
	position := map[string]int{}
	failures := 0
	for i, source := range s.sources {
		if errs[i] != nil {
			failures++
			s.logger.Warn("sources.composite.degraded",
				"source", source.Name(),
				"locale", locale,
				"error", errs[i].Error(),
			)
			continue
		}
		for _, entry := range results[i] {
			key := routes.TrimPath(entry.Path)
			if at, seen := position[key]; seen {
				// Later adapters override earlier ones per path.
				merged[at] = entry
				continue
			}
			position[key] = len(merged)
			merged = append(merged, entry)
		}
	}
	if failures == len(s.sources) {
		return nil, errors.Join(errs...)
	}
	return merged, nil
}
