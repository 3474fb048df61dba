package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/goliatone/go-sitemap/internal/logging"
	"github.com/goliatone/go-sitemap/pkg/interfaces"
	"github.com/goliatone/go-sitemap/routes"
)

// MarkdownConfig controls file discovery within the content tree.
type MarkdownConfig struct {
	// Extensions lists the file suffixes treated as markdown documents.
	// Defaults to .md and .markdown.
	Extensions []string
}

// MarkdownSource discovers route entries from a markdown content tree laid
// out as <locale>/<path>.md. Frontmatter supplies titles, summaries, and
// sitemap hints; drafts never reach the registry.
type MarkdownSource struct {
	fsys   fs.FS
	exts   map[string]struct{}
	logger interfaces.Logger
}

var _ interfaces.ContentSource = (*MarkdownSource)(nil)

// NewMarkdownSource builds a source over the provided filesystem, typically
// os.DirFS(contentDir).
func NewMarkdownSource(fsys fs.FS, cfg MarkdownConfig, logger interfaces.Logger) (*MarkdownSource, error) {
	if fsys == nil {
		return nil, errors.New("sources: markdown source requires a filesystem")
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = []string{".md", ".markdown"}
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}

	return &MarkdownSource{fsys: fsys, exts: exts, logger: logger}, nil
}

// Name identifies the adapter on merged entries and degradation warnings.
func (s *MarkdownSource) Name() string { return "markdown" }

// FetchRoutes walks <locale>/ and parses every markdown document into a
// route entry. A missing locale directory means the locale simply has no
// markdown content; malformed documents are skipped with a warning so one
// bad file never empties the sitemap.
func (s *MarkdownSource) FetchRoutes(ctx context.Context, locale string) ([]routes.RouteEntry, error) {
	code := strings.TrimSpace(locale)
	if code == "" {
		return nil, routes.ErrLocaleCodeRequired
	}
	if _, err := fs.Stat(s.fsys, code); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("sources: stat locale dir %s: %w", code, err)
	}

	var entries []routes.RouteEntry
	walkErr := fs.WalkDir(s.fsys, code, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if _, ok := s.exts[strings.ToLower(path.Ext(filePath))]; !ok {
			return nil
		}

		entry, ok := s.loadEntry(code, filePath, d)
		if ok {
			entries = append(entries, entry)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("sources: walk markdown tree for %s: %w", code, walkErr)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

func (s *MarkdownSource) loadEntry(locale, filePath string, d fs.DirEntry) (routes.RouteEntry, bool) {
	logger := logging.WithRouteContext(s.logger, locale, filePath, s.Name())

	data, err := fs.ReadFile(s.fsys, filePath)
	if err != nil {
		logger.Warn("sources.markdown.unreadable", "error", err.Error())
		return routes.RouteEntry{}, false
	}

	var meta routeFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		logger.Warn("sources.markdown.malformed", "error", err.Error())
		return routes.RouteEntry{}, false
	}
	if meta.Draft {
		return routes.RouteEntry{}, false
	}

	lastModified := meta.Date
	if lastModified.IsZero() {
		if info, err := d.Info(); err == nil {
			lastModified = info.ModTime()
		}
	}

	summary := strings.TrimSpace(meta.Summary)
	if summary == "" {
		summary = firstParagraph(body)
	}

	return routes.RouteEntry{
		Path:         documentRoutePath(locale, filePath, meta.Slug),
		Locale:       locale,
		Title:        strings.TrimSpace(meta.Title),
		Summary:      summary,
		ChangeFreq:   routes.ChangeFrequency(strings.TrimSpace(meta.ChangeFreq)),
		Priority:     meta.Priority,
		LastModified: lastModified,
		Origin:       s.Name(),
	}, true
}

type routeFrontMatter struct {
	Title      string    `yaml:"title"`
	Slug       string    `yaml:"slug"`
	Summary    string    `yaml:"summary"`
	Date       time.Time `yaml:"date"`
	Draft      bool      `yaml:"draft"`
	ChangeFreq string    `yaml:"change_frequency"`
	Priority   float64   `yaml:"priority"`
}

// documentRoutePath maps a file path beneath the locale directory to a
// locale-relative route. index and _index stems address their directory; a
// frontmatter slug overrides the file stem, or the whole path when it
// contains a separator.
func documentRoutePath(locale, filePath, slug string) string {
	rel := strings.TrimPrefix(path.Clean(filePath), locale)
	rel = routes.TrimPath(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if stem := path.Base(rel); stem == "index" || stem == "_index" {
		rel = path.Dir(rel)
		if rel == "." {
			rel = ""
		}
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return rel
	}
	if strings.Contains(slug, "/") {
		return routes.TrimPath(slug)
	}
	dir := path.Dir(rel)
	if dir == "." || dir == "" {
		return slug
	}
	return dir + "/" + slug
}

// firstParagraph extracts the first paragraph's plain text so feed items
// get a summary even when frontmatter omits one.
func firstParagraph(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}

	parser := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()
	root := parser.Parse(text.NewReader(body))

	var summary string
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if paragraph, ok := node.(*ast.Paragraph); ok {
			summary = strings.Join(strings.Fields(string(paragraph.Text(body))), " ")
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return summary
}
