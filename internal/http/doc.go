// Package http provides the optional HTTP surface for generated documents.
//
// Routes mount under a configurable base path (site root by default):
//   - Documents: /{locale}/sitemap.xml, /{locale}/robots.txt,
//     /{locale}/feed.xml, /{locale}/atom.xml
//   - Default-locale aliases: /sitemap.xml, /robots.txt, /feed.xml,
//     /atom.xml (registered when a default locale is configured)
//   - Operations: /sitemaps/status, /sitemaps/revalidate
//
// Host applications can register the handlers on their own mux as needed.
package http
