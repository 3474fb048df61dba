package interfaces

import (
	"context"

	"github.com/goliatone/go-sitemap/routes"
)

// ContentSource yields the dynamic route entries for a locale. Adapters wrap
// databases, content directories, or remote feeds; the registry treats them
// uniformly and absorbs their failures into degraded-mode rebuilds.
//
// FetchRoutes must honour ctx cancellation and return entries scoped to the
// requested locale. Returned slices are owned by the caller.
type ContentSource interface {
	Name() string
	FetchRoutes(ctx context.Context, locale string) ([]routes.RouteEntry, error)
}

// RevalidationQueue accepts staleness events. The revalidation coordinator
// implements it; watchers and commands depend on this narrow surface instead
// of the full coordinator type.
type RevalidationQueue interface {
	Enqueue(event routes.RevalidationEvent) error
}
