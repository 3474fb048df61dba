package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-sitemap/internal/logging"
	"github.com/goliatone/go-sitemap/internal/revalidate"
	"github.com/goliatone/go-sitemap/internal/validation"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

// revalidateSchema is the contract for revalidation webhook payloads.
const revalidateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "locale": {"type": "string", "minLength": 1},
    "reason": {"type": "string"}
  },
  "required": ["locale"],
  "additionalProperties": false
}`

// Service is the slice of the revalidation coordinator the endpoints serve.
type Service interface {
	Sitemap(ctx context.Context, locale string) (*routes.SitemapDocument, error)
	Robots(ctx context.Context, locale string) (*routes.RobotsPolicy, error)
	Feed(ctx context.Context, locale string, format routes.FeedFormat) (*routes.FeedDocument, error)
	StatusAll() []routes.LocaleStatus
	Enqueue(event routes.RevalidationEvent) error
}

var _ Service = (*revalidate.Coordinator)(nil)

// API registers document reads and revalidation operations on a mux.
type API struct {
	basePath      string
	defaultLocale string
	service       Service
	logger        interfaces.Logger
	validator     *validation.Validator
}

// Option mutates the API configuration.
type Option func(*API)

// WithBasePath mounts every route under path (defaults to the site root).
func WithBasePath(path string) Option {
	return func(api *API) {
		if api == nil {
			return
		}
		api.basePath = strings.TrimSpace(path)
	}
}

// WithService wires the revalidation coordinator the endpoints serve.
func WithService(service Service) Option {
	return func(api *API) {
		if api != nil {
			api.service = service
		}
	}
}

// WithDefaultLocale enables the root document aliases (/sitemap.xml and
// friends) answering for the given locale.
func WithDefaultLocale(code string) Option {
	return func(api *API) {
		if api != nil {
			api.defaultLocale = strings.TrimSpace(code)
		}
	}
}

// WithLogger sets the logger used for operation audit lines.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if api != nil && logger != nil {
			api.logger = logger
		}
	}
}

// NewAPI constructs the HTTP surface. The revalidation payload schema is
// compiled once here so handlers never pay for it per request.
func NewAPI(opts ...Option) (*API, error) {
	api := &API{}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	if api.logger == nil {
		api.logger = logging.NoOp()
	}
	validator, err := validation.NewValidator("revalidate.json", revalidateSchema)
	if err != nil {
		return nil, fmt.Errorf("http: compile revalidate schema: %w", err)
	}
	api.validator = validator
	return api, nil
}

// Register attaches the document and operation endpoints to the provided mux.
func (api *API) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: api is nil")
	}

	api.registerDocumentRoutes(mux)
	api.registerOperationRoutes(mux)
	return nil
}

func (api *API) registerDocumentRoutes(mux *http.ServeMux) {
	base := api.basePath

	mux.HandleFunc("GET "+joinPath(base, "{locale}/sitemap.xml"), api.handleSitemap)
	mux.HandleFunc("GET "+joinPath(base, "{locale}/robots.txt"), api.handleRobots)
	mux.HandleFunc("GET "+joinPath(base, "{locale}/feed.xml"), api.handleFeed(routes.FeedRSS))
	mux.HandleFunc("GET "+joinPath(base, "{locale}/atom.xml"), api.handleFeed(routes.FeedAtom))

	if api.defaultLocale == "" {
		return
	}
	mux.HandleFunc("GET "+joinPath(base, "sitemap.xml"), api.handleSitemap)
	mux.HandleFunc("GET "+joinPath(base, "robots.txt"), api.handleRobots)
	mux.HandleFunc("GET "+joinPath(base, "feed.xml"), api.handleFeed(routes.FeedRSS))
	mux.HandleFunc("GET "+joinPath(base, "atom.xml"), api.handleFeed(routes.FeedAtom))
}

func (api *API) registerOperationRoutes(mux *http.ServeMux) {
	base := api.basePath

	mux.HandleFunc("GET "+joinPath(base, "sitemaps/status"), api.handleStatus)
	mux.HandleFunc("POST "+joinPath(base, "sitemaps/revalidate"), api.handleRevalidate)
}

func (api *API) handleSitemap(w http.ResponseWriter, r *http.Request) {
	if api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	doc, err := api.service.Sitemap(r.Context(), api.localeFor(r))
	if err != nil {
		writeError(w, err)
		return
	}
	serveDocument(w, r, "application/xml", doc.Checksum, doc.GeneratedAt, doc.XML)
}

func (api *API) handleRobots(w http.ResponseWriter, r *http.Request) {
	if api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	policy, err := api.service.Robots(r.Context(), api.localeFor(r))
	if err != nil {
		writeError(w, err)
		return
	}
	serveDocument(w, r, "text/plain; charset=utf-8", policy.Checksum, time.Time{}, policy.Body)
}

func (api *API) handleFeed(format routes.FeedFormat) http.HandlerFunc {
	contentType := "application/rss+xml"
	if format == routes.FeedAtom {
		contentType = "application/atom+xml"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if api.service == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
			return
		}
		doc, err := api.service.Feed(r.Context(), api.localeFor(r), format)
		if err != nil {
			writeError(w, err)
			return
		}
		serveDocument(w, r, contentType, doc.Checksum, doc.GeneratedAt, doc.XML)
	}
}

func (api *API) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, api.service.StatusAll())
}

func (api *API) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	if api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	if err := api.validator.Validate(payload); err != nil {
		writeError(w, err)
		return
	}

	locale, _ := payload["locale"].(string)
	locale = strings.TrimSpace(locale)
	reason, _ := payload["reason"].(string)
	if strings.TrimSpace(reason) == "" {
		reason = "api"
	}

	if err := api.service.Enqueue(routes.RevalidationEvent{
		Locale:      locale,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}); err != nil {
		writeError(w, err)
		return
	}

	api.logger.Info("http.revalidate.accepted", "locale", locale, "reason", reason)
	writeJSON(w, http.StatusAccepted, revalidateResponse{
		Status:  "accepted",
		Locales: api.acceptedLocales(locale),
	})
}

type revalidateResponse struct {
	Status  string   `json:"status"`
	Locales []string `json:"locales"`
}

// localeFor reads the path wildcard, falling back to the default locale on
// the alias routes that have none.
func (api *API) localeFor(r *http.Request) string {
	if code := strings.TrimSpace(r.PathValue("locale")); code != "" {
		return code
	}
	return api.defaultLocale
}

// acceptedLocales expands the wildcard into the configured locale set so
// webhook callers see exactly what was scheduled.
func (api *API) acceptedLocales(locale string) []string {
	if locale != revalidate.LocaleAll {
		return []string{locale}
	}
	statuses := api.service.StatusAll()
	codes := make([]string, 0, len(statuses))
	for _, status := range statuses {
		codes = append(codes, status.Locale)
	}
	return codes
}
