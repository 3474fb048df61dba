package routes

import (
	"time"

	"github.com/google/uuid"
)

// SitemapDocument is the generated sitemap for one locale. XML holds the
// serialized body; Checksum is the sha256 hex digest of that body so callers
// can compare generations without re-serializing.
type SitemapDocument struct {
	ID          uuid.UUID    `json:"id"`
	Locale      string       `json:"locale"`
	Entries     []RouteEntry `json:"entries"`
	GeneratedAt time.Time    `json:"generated_at"`
	XML         []byte       `json:"-"`
	Checksum    string       `json:"checksum"`
	Warnings    []Warning    `json:"warnings,omitempty"`
}

// RobotsPolicy is the generated robots directive set for one locale.
type RobotsPolicy struct {
	Locale          string   `json:"locale"`
	AllowAll        bool     `json:"allow_all"`
	DisallowedPaths []string `json:"disallowed_paths,omitempty"`
	SitemapURL      string   `json:"sitemap_url"`
	Body            []byte   `json:"-"`
	Checksum        string   `json:"checksum"`
}

// FeedFormat selects the syndication dialect of a FeedDocument.
type FeedFormat string

const (
	FeedRSS  FeedFormat = "rss"
	FeedAtom FeedFormat = "atom"
)

// FeedItem is a single syndicated entry.
type FeedItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Link        string    `json:"link"`
	GUID        string    `json:"guid"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FeedDocument is the generated RSS or Atom feed for one locale.
type FeedDocument struct {
	Locale      string     `json:"locale"`
	Format      FeedFormat `json:"format"`
	Items       []FeedItem `json:"items"`
	GeneratedAt time.Time  `json:"generated_at"`
	XML         []byte     `json:"-"`
	Checksum    string     `json:"checksum"`
}

// DocumentSet bundles every artifact produced by one rebuild pass for a
// locale. Feed pointers are nil when feed generation is disabled.
type DocumentSet struct {
	Locale      string           `json:"locale"`
	Sitemap     *SitemapDocument `json:"sitemap,omitempty"`
	Robots      *RobotsPolicy    `json:"robots,omitempty"`
	RSS         *FeedDocument    `json:"rss,omitempty"`
	Atom        *FeedDocument    `json:"atom,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// LocaleStatus is the observable revalidation state for one locale.
type LocaleStatus struct {
	Locale       string    `json:"locale"`
	State        string    `json:"state"`
	GeneratedAt  time.Time `json:"generated_at"`
	Checksum     string    `json:"checksum,omitempty"`
	EntryCount   int       `json:"entry_count"`
	WarningCount int       `json:"warning_count"`
	Rebuilds     int       `json:"rebuilds"`
	LastError    string    `json:"last_error,omitempty"`
}
