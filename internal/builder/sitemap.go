package builder

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-sitemap/internal/locales"
	"github.com/goliatone/go-sitemap/routes"
)

// renderSitemap serializes merged routes as sitemap protocol XML. Entries
// arrive sorted and deduplicated from the registry; generation time never
// appears in the body so unchanged inputs produce identical bytes.
func renderSitemap(resolver *locales.Resolver, locale *locales.Locale, entries []routes.RouteEntry) string {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	seen := map[string]struct{}{}
	for _, entry := range entries {
		location := resolver.EntryURL(locale, entry.Path)
		if location == "" {
			continue
		}
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}
		builder.WriteString("  <url>\n")
		builder.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", escapeXML(location)))
		if !entry.LastModified.IsZero() {
			builder.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", entry.LastModified.UTC().Format(time.RFC3339)))
		}
		if entry.ChangeFreq.IsValid() {
			builder.WriteString(fmt.Sprintf("    <changefreq>%s</changefreq>\n", entry.ChangeFreq))
		}
		builder.WriteString(fmt.Sprintf("    <priority>%.1f</priority>\n", entry.Priority))
		builder.WriteString("  </url>\n")
	}
	builder.WriteString(`</urlset>` + "\n")
	return builder.String()
}
