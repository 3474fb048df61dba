package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-sitemap/internal/identity"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

// NewRouteRepository builds the typed repository over sitemap_routes.
func NewRouteRepository(db *bun.DB) repository.Repository[*routes.RouteRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*routes.RouteRecord]{
		NewRecord: func() *routes.RouteRecord { return &routes.RouteRecord{} },
		GetID: func(r *routes.RouteRecord) uuid.UUID {
			return r.ID
		},
		SetID: func(r *routes.RouteRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(r *routes.RouteRecord) string {
			if r == nil {
				return ""
			}
			return r.ID.String()
		},
	})
}

// BunSource serves route entries from the sitemap_routes table. Only
// published records reach the registry.
type BunSource struct {
	repo repository.Repository[*routes.RouteRecord]
}

var _ interfaces.ContentSource = (*BunSource)(nil)

// NewBunSource wires the adapter without caching.
func NewBunSource(db *bun.DB) *BunSource {
	return NewBunSourceWithCache(db, nil, nil)
}

// NewBunSourceWithCache wraps the repository in a read-through cache when
// both collaborators are supplied.
func NewBunSourceWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunSource {
	base := NewRouteRepository(db)
	if cacheService != nil && keySerializer != nil {
		base = repositorycache.New(base, cacheService, keySerializer)
	}
	return &BunSource{repo: base}
}

// Name identifies the adapter on merged entries and degradation warnings.
func (s *BunSource) Name() string { return "database" }

// FetchRoutes lists the published records for locale ordered by path.
func (s *BunSource) FetchRoutes(ctx context.Context, locale string) ([]routes.RouteEntry, error) {
	code := strings.TrimSpace(locale)
	if code == "" {
		return nil, routes.ErrLocaleCodeRequired
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.locale = ?", code).Where("?TableAlias.published = ?", true)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("path ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("sources: list routes for %s: %w", code, err)
	}

	entries := make([]routes.RouteEntry, 0, len(records))
	for _, record := range records {
		entry := record.Entry()
		entry.Origin = s.Name()
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveRoute upserts a record keyed by its deterministic route identity so
// repeated imports of the same locale/path stay idempotent.
func (s *BunSource) SaveRoute(ctx context.Context, record *routes.RouteRecord) (*routes.RouteRecord, error) {
	if record == nil {
		return nil, errors.New("sources: route record is required")
	}
	record.Locale = strings.TrimSpace(record.Locale)
	if record.Locale == "" {
		return nil, routes.ErrLocaleCodeRequired
	}
	record.Path = routes.TrimPath(record.Path)
	if record.ID == uuid.Nil {
		record.ID = identity.RouteUUID(record.Locale, record.Path)
	}

	if _, err := s.repo.GetByID(ctx, record.ID.String()); err != nil {
		if isNotFound(err) {
			created, createErr := s.repo.Create(ctx, record)
			if createErr != nil {
				return nil, fmt.Errorf("sources: create route %s/%s: %w", record.Locale, record.Path, createErr)
			}
			return created, nil
		}
		return nil, fmt.Errorf("sources: load route %s/%s: %w", record.Locale, record.Path, err)
	}

	record.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"locale",
			"path",
			"title",
			"summary",
			"change_freq",
			"priority",
			"published",
			"last_modified",
			"updated_at",
		),
	)
	if err != nil {
		return nil, fmt.Errorf("sources: update route %s/%s: %w", record.Locale, record.Path, err)
	}
	return updated, nil
}

// DeleteRoute removes the record for locale/path, addressed by its
// deterministic identity.
func (s *BunSource) DeleteRoute(ctx context.Context, locale, path string) error {
	id := identity.RouteUUID(strings.TrimSpace(locale), routes.TrimPath(path))
	return s.repo.Delete(ctx, &routes.RouteRecord{ID: id})
}

func isNotFound(err error) bool {
	return goerrors.IsCategory(err, repository.CategoryDatabaseNotFound)
}
