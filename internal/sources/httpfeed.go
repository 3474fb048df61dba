package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-sitemap/internal/logging"
	"github.com/goliatone/go-sitemap/internal/validation"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

// routesSchema is the contract remote route feeds must satisfy. Payloads
// that fail validation are rejected wholesale so the registry falls back to
// its last known good data instead of ingesting garbage.
const routesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "path": {"type": "string"},
      "title": {"type": "string"},
      "summary": {"type": "string"},
      "change_frequency": {"type": "string"},
      "priority": {"type": "number"},
      "last_modified": {"type": "string"}
    },
    "required": ["path"],
    "additionalProperties": true
  }
}`

const maxFeedResponseBytes = 4 << 20

// HTTPConfig configures the remote route feed adapter.
type HTTPConfig struct {
	// Endpoint is the absolute URL of the route feed. The requested locale
	// is appended as a query parameter.
	Endpoint string
	// Timeout bounds each request when no custom client is supplied.
	Timeout time.Duration
}

// HTTPSource pulls route entries from a JSON endpoint, one request per
// locale, validating the payload against routesSchema before mapping it.
type HTTPSource struct {
	endpoint  *url.URL
	client    *http.Client
	validator *validation.Validator
	logger    interfaces.Logger
}

var _ interfaces.ContentSource = (*HTTPSource)(nil)

// NewHTTPSource builds the adapter. A nil client gets a default one bounded
// by cfg.Timeout.
func NewHTTPSource(cfg HTTPConfig, client *http.Client, logger interfaces.Logger) (*HTTPSource, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("sources: feed endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || !parsed.IsAbs() {
		return nil, fmt.Errorf("sources: feed endpoint %q must be an absolute URL", endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	validator, err := validation.NewValidator("routes.json", routesSchema)
	if err != nil {
		return nil, fmt.Errorf("sources: compile route schema: %w", err)
	}

	return &HTTPSource{endpoint: parsed, client: client, validator: validator, logger: logger}, nil
}

// Name identifies the adapter on merged entries and degradation warnings.
func (s *HTTPSource) Name() string { return "feed" }

// FetchRoutes requests the feed for locale and maps the validated payload
// into route entries.
func (s *HTTPSource) FetchRoutes(ctx context.Context, locale string) ([]routes.RouteEntry, error) {
	code := strings.TrimSpace(locale)
	if code == "" {
		return nil, routes.ErrLocaleCodeRequired
	}

	target := *s.endpoint
	query := target.Query()
	query.Set("locale", code)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("sources: build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sources: fetch route feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sources: route feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("sources: read route feed: %w", err)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("sources: decode route feed: %w", err)
	}
	if err := s.validator.Validate(payload); err != nil {
		return nil, fmt.Errorf("sources: route feed payload rejected: %w", err)
	}

	var rows []feedRoute
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("sources: map route feed: %w", err)
	}

	entries := make([]routes.RouteEntry, 0, len(rows))
	for _, row := range rows {
		entry := routes.RouteEntry{
			Path:       row.Path,
			Locale:     code,
			Title:      strings.TrimSpace(row.Title),
			Summary:    strings.TrimSpace(row.Summary),
			ChangeFreq: routes.ChangeFrequency(strings.TrimSpace(row.ChangeFreq)),
			Priority:   row.Priority,
			Origin:     s.Name(),
		}
		if raw := strings.TrimSpace(row.LastModified); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				logging.WithRouteContext(s.logger, code, row.Path, s.Name()).
					Warn("sources.feed.bad_timestamp", "value", raw)
			} else {
				entry.LastModified = ts
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type feedRoute struct {
	Path         string  `json:"path"`
	Title        string  `json:"title"`
	Summary      string  `json:"summary"`
	ChangeFreq   string  `json:"change_frequency"`
	Priority     float64 `json:"priority"`
	LastModified string  `json:"last_modified"`
}
