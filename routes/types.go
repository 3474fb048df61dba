package routes

import (
	"strings"
	"time"
)

// ChangeFrequency is the sitemap change frequency hint attached to a route.
type ChangeFrequency string

const (
	FreqAlways  ChangeFrequency = "always"
	FreqHourly  ChangeFrequency = "hourly"
	FreqDaily   ChangeFrequency = "daily"
	FreqWeekly  ChangeFrequency = "weekly"
	FreqMonthly ChangeFrequency = "monthly"
	FreqYearly  ChangeFrequency = "yearly"
	FreqNever   ChangeFrequency = "never"
)

// IsValid reports whether the frequency is one of the sitemap protocol values.
func (f ChangeFrequency) IsValid() bool {
	switch f {
	case FreqAlways, FreqHourly, FreqDaily, FreqWeekly, FreqMonthly, FreqYearly, FreqNever:
		return true
	}
	return false
}

func (f ChangeFrequency) String() string {
	return string(f)
}

// ParseChangeFrequency normalizes free-form input into a ChangeFrequency.
// The boolean is false when the input does not map to a protocol value.
func ParseChangeFrequency(value string) (ChangeFrequency, bool) {
	freq := ChangeFrequency(strings.ToLower(strings.TrimSpace(value)))
	if freq.IsValid() {
		return freq, true
	}
	return "", false
}

// RouteEntry is a single URL-worthy route within a locale. Path is relative
// to the locale's canonical base and never carries a leading slash; the empty
// path addresses the locale root.
type RouteEntry struct {
	Path         string          `json:"path"`
	Locale       string          `json:"locale"`
	LastModified time.Time       `json:"last_modified,omitempty"`
	ChangeFreq   ChangeFrequency `json:"change_freq,omitempty"`
	Priority     float64         `json:"priority"`
	Title        string          `json:"title,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	Origin       string          `json:"origin,omitempty"`
}

// Warning records a recovered per-entry problem observed while merging or
// normalizing routes. Warnings ride on the generated document instead of
// failing the build.
type Warning struct {
	Locale  string `json:"locale"`
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// RevalidationEvent marks a locale's generated documents as stale.
type RevalidationEvent struct {
	Locale      string    `json:"locale"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// ClampPriority forces a sitemap priority into the protocol range [0.0, 1.0].
// The boolean reporting whether clamping happened lets callers surface a warning.
func ClampPriority(value float64) (float64, bool) {
	switch {
	case value < 0:
		return 0, true
	case value > 1:
		return 1, true
	}
	return value, false
}

// TrimPath removes surrounding whitespace and slashes so "/about/" and
// "about" address the same route. The locale root collapses to the empty string.
func TrimPath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}
