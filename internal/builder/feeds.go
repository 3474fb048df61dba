package builder

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-sitemap/internal/identity"
	"github.com/goliatone/go-sitemap/internal/locales"
	"github.com/goliatone/go-sitemap/routes"
)

const defaultMaxFeedItems = 100

// feedDocuments builds the RSS and Atom documents for a locale from its
// merged routes. Entries without a title are navigation-only and carry
// nothing worth syndicating, so they are skipped; a locale with no titled
// entries yields nil documents.
func (b *Builder) feedDocuments(loc *locales.Locale, entries []routes.RouteEntry, generatedAt time.Time) (*routes.FeedDocument, *routes.FeedDocument) {
	items := b.feedItems(loc, entries)
	if len(items) == 0 {
		return nil, nil
	}

	updated := newestItemTime(items)
	rssBody := b.renderRSSFeed(loc, items, updated)
	atomBody := b.renderAtomFeed(loc, items, updated)

	rss := &routes.FeedDocument{
		Locale:      loc.Code,
		Format:      routes.FeedRSS,
		Items:       items,
		GeneratedAt: generatedAt,
		XML:         []byte(rssBody),
		Checksum:    computeHashFromString(rssBody),
	}
	atom := &routes.FeedDocument{
		Locale:      loc.Code,
		Format:      routes.FeedAtom,
		Items:       append([]routes.FeedItem(nil), items...),
		GeneratedAt: generatedAt,
		XML:         []byte(atomBody),
		Checksum:    computeHashFromString(atomBody),
	}
	b.logger.Debug("builder.feeds.generated", "locale", loc.Code, "items", len(items))
	return rss, atom
}

func (b *Builder) feedItems(loc *locales.Locale, entries []routes.RouteEntry) []routes.FeedItem {
	items := make([]routes.FeedItem, 0, len(entries))
	for _, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}
		items = append(items, routes.FeedItem{
			Title:       title,
			Summary:     normalizeWhitespace(entry.Summary),
			Link:        b.resolver.EntryURL(loc, entry.Path),
			GUID:        "urn:uuid:" + identity.RouteUUID(loc.Code, entry.Path).String(),
			PublishedAt: entry.LastModified,
			UpdatedAt:   entry.LastModified,
		})
	}
	if len(items) == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].GUID < items[j].GUID
		}
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	limit := b.cfg.MaxFeedItems
	if limit <= 0 {
		limit = defaultMaxFeedItems
	}
	if len(items) > limit {
		items = append([]routes.FeedItem(nil), items[:limit]...)
	}
	return items
}

func (b *Builder) renderRSSFeed(loc *locales.Locale, items []routes.FeedItem, updated time.Time) string {
	baseLink := b.resolver.EntryURL(loc, "")
	title := b.feedTitle(loc)
	description := b.feedDescription(loc)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(baseLink)))
	builder.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(description)))
	builder.WriteString(fmt.Sprintf("    <language>%s</language>\n", escapeXML(loc.Code)))
	builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", updated.UTC().Format(time.RFC1123Z)))
	for _, item := range items {
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(item.Link)))
		builder.WriteString(fmt.Sprintf("      <guid>%s</guid>\n", escapeXML(item.GUID)))
		if !item.PublishedAt.IsZero() {
			builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", item.PublishedAt.UTC().Format(time.RFC1123Z)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString(`</rss>` + "\n")
	return builder.String()
}

func (b *Builder) renderAtomFeed(loc *locales.Locale, items []routes.FeedItem, updated time.Time) string {
	baseLink := b.resolver.EntryURL(loc, "")
	feedID, err := b.resolver.DocumentURL(loc.Code, locales.RouteAtom)
	if err != nil || feedID == "" {
		feedID = b.resolver.EntryURL(loc, "atom.xml")
	}
	title := b.feedTitle(loc)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="%s">`+"\n", escapeXMLAttr(loc.Code)))
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(feedID)))
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(title)))
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", updated.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf(`  <link rel="alternate" href="%s" />`+"\n", escapeXMLAttr(baseLink)))
	builder.WriteString(fmt.Sprintf(`  <link rel="self" href="%s" />`+"\n", escapeXMLAttr(feedID)))
	for _, item := range items {
		entryUpdated := item.UpdatedAt
		if entryUpdated.IsZero() {
			entryUpdated = updated
		}
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>%s</id>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf(`    <link href="%s" />`+"\n", escapeXMLAttr(item.Link)))
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", entryUpdated.UTC().Format(time.RFC3339)))
		if !item.PublishedAt.IsZero() {
			builder.WriteString(fmt.Sprintf("    <published>%s</published>\n", item.PublishedAt.UTC().Format(time.RFC3339)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("    <summary>%s</summary>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString(`</feed>` + "\n")
	return builder.String()
}

func (b *Builder) feedTitle(loc *locales.Locale) string {
	base := strings.TrimSpace(b.cfg.SiteTitle)
	if base == "" {
		base = strings.TrimRight(loc.CanonicalBase, "/")
	}
	if loc.IsDefault {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, strings.ToUpper(loc.Code))
}

func (b *Builder) feedDescription(loc *locales.Locale) string {
	if desc := strings.TrimSpace(b.cfg.SiteDescription); desc != "" {
		return desc
	}
	if loc.IsDefault {
		return "Latest updates"
	}
	return fmt.Sprintf("Latest updates for %s", strings.ToUpper(loc.Code))
}

// newestItemTime anchors channel-level timestamps to the content itself
// rather than the wall clock, keeping unchanged feeds byte-identical.
func newestItemTime(items []routes.FeedItem) time.Time {
	var newest time.Time
	for _, item := range items {
		ts := item.UpdatedAt
		if ts.IsZero() {
			ts = item.PublishedAt
		}
		if ts.After(newest) {
			newest = ts
		}
	}
	return newest
}

func normalizeWhitespace(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return strings.Join(strings.Fields(input), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}

func escapeXMLAttr(value string) string {
	return html.EscapeString(value)
}
