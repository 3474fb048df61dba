package routes

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RouteRecord is the persisted form of a dynamic route entry.
type RouteRecord struct {
	bun.BaseModel `bun:"table:sitemap_routes,alias:sr"`

	ID           uuid.UUID  `bun:",pk,type:uuid"          json:"id"`
	Locale       string     `bun:"locale,notnull"         json:"locale"`
	Path         string     `bun:"path,notnull"           json:"path"`
	Title        string     `bun:"title"                  json:"title,omitempty"`
	Summary      string     `bun:"summary"                json:"summary,omitempty"`
	ChangeFreq   string     `bun:"change_freq"            json:"change_freq,omitempty"`
	Priority     float64    `bun:"priority"               json:"priority"`
	Published    bool       `bun:"published,notnull,default:true" json:"published"`
	LastModified *time.Time `bun:"last_modified,nullzero" json:"last_modified,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Entry converts the stored record into its in-memory route form.
func (r *RouteRecord) Entry() RouteEntry {
	entry := RouteEntry{
		Path:     TrimPath(r.Path),
		Locale:   r.Locale,
		Priority: r.Priority,
		Title:    r.Title,
		Summary:  r.Summary,
	}
	if freq, ok := ParseChangeFrequency(r.ChangeFreq); ok {
		entry.ChangeFreq = freq
	}
	if r.LastModified != nil {
		entry.LastModified = r.LastModified.UTC()
	}
	return entry
}
