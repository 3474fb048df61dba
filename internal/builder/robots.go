package builder

import (
	"fmt"
	"strings"
)

// renderRobots serializes the robots directive set. With no disallowed
// paths the policy allows everything; otherwise each path gets its own
// Disallow line and crawlers treat the remainder as allowed.
func renderRobots(sitemapURL string, disallowed []string) string {
	var builder strings.Builder
	builder.WriteString("User-agent: *\n")
	if len(disallowed) == 0 {
		builder.WriteString("Allow: /\n")
	} else {
		for _, path := range disallowed {
			builder.WriteString(fmt.Sprintf("Disallow: %s\n", path))
		}
	}
	if strings.TrimSpace(sitemapURL) != "" {
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("Sitemap: %s\n", sitemapURL))
	}
	return builder.String()
}

// normalizeDisallowed trims configured paths and roots them with a leading
// slash, preserving configuration order and dropping duplicates.
func normalizeDisallowed(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(paths))
	seen := map[string]struct{}{}
	for _, raw := range paths {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "/") {
			trimmed = "/" + trimmed
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}
