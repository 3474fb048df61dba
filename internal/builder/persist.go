package builder

import (
	"bytes"
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-sitemap/routes"
)

// Persister writes published document sets through an ArtifactWriter using
// the layout <locale>/sitemap.xml, <locale>/robots.txt, and
// feeds/<locale>.<format>.xml. The default locale additionally gets
// root-level aliases so static hosts can serve /sitemap.xml directly.
type Persister struct {
	writer        ArtifactWriter
	defaultLocale string
}

// NewPersister wires a persister over writer. A nil writer degrades to the
// no-op implementation.
func NewPersister(writer ArtifactWriter, defaultLocale string) *Persister {
	if writer == nil {
		writer = NewNoopWriter()
	}
	return &Persister{writer: writer, defaultLocale: strings.TrimSpace(defaultLocale)}
}

// PersistSet writes every non-nil document in the set.
func (p *Persister) PersistSet(ctx context.Context, set *routes.DocumentSet) error {
	return p.persistSet(ctx, set, map[string]struct{}{}, nil)
}

// PersistAll writes every set plus a manifest.json indexing the artifacts.
func (p *Persister) PersistAll(ctx context.Context, sets []*routes.DocumentSet) error {
	manifest := &artifactManifest{Version: manifestVersion}
	dirCache := map[string]struct{}{}
	for _, set := range sets {
		if set == nil {
			continue
		}
		if set.GeneratedAt.After(manifest.GeneratedAt) {
			manifest.GeneratedAt = set.GeneratedAt
		}
		if err := p.persistSet(ctx, set, dirCache, manifest); err != nil {
			return err
		}
	}

	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	req := WriteFileRequest{
		Path:        manifestFileName,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    CategoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    map[string]string{"version": strconv.Itoa(manifest.Version)},
	}
	return p.write(ctx, dirCache, nil, req)
}

func (p *Persister) persistSet(ctx context.Context, set *routes.DocumentSet, dirCache map[string]struct{}, manifest *artifactManifest) error {
	if set == nil {
		return nil
	}
	isDefault := p.defaultLocale != "" && strings.EqualFold(set.Locale, p.defaultLocale)

	if doc := set.Sitemap; doc != nil {
		if err := p.writeWithAlias(ctx, dirCache, manifest, WriteFileRequest{
			Path:        path.Join(set.Locale, "sitemap.xml"),
			Size:        int64(len(doc.XML)),
			Locale:      set.Locale,
			Category:    CategorySitemap,
			ContentType: "application/xml",
			Checksum:    doc.Checksum,
			Metadata:    artifactMetadata(doc.GeneratedAt, false),
		}, doc.XML, isDefault, "sitemap.xml", doc.GeneratedAt); err != nil {
			return err
		}
	}

	if doc := set.Robots; doc != nil {
		if err := p.writeWithAlias(ctx, dirCache, manifest, WriteFileRequest{
			Path:        path.Join(set.Locale, "robots.txt"),
			Size:        int64(len(doc.Body)),
			Locale:      set.Locale,
			Category:    CategoryRobots,
			ContentType: "text/plain; charset=utf-8",
			Checksum:    doc.Checksum,
			Metadata:    artifactMetadata(set.GeneratedAt, false),
		}, doc.Body, isDefault, "robots.txt", set.GeneratedAt); err != nil {
			return err
		}
	}

	if doc := set.RSS; doc != nil {
		if err := p.writeWithAlias(ctx, dirCache, manifest, WriteFileRequest{
			Path:        path.Join("feeds", set.Locale+".rss.xml"),
			Size:        int64(len(doc.XML)),
			Locale:      set.Locale,
			Category:    CategoryFeed,
			ContentType: "application/rss+xml",
			Checksum:    doc.Checksum,
			Metadata:    artifactMetadata(doc.GeneratedAt, false),
		}, doc.XML, isDefault, "feed.xml", doc.GeneratedAt); err != nil {
			return err
		}
	}

	if doc := set.Atom; doc != nil {
		if err := p.writeWithAlias(ctx, dirCache, manifest, WriteFileRequest{
			Path:        path.Join("feeds", set.Locale+".atom.xml"),
			Size:        int64(len(doc.XML)),
			Locale:      set.Locale,
			Category:    CategoryFeed,
			ContentType: "application/atom+xml",
			Checksum:    doc.Checksum,
			Metadata:    artifactMetadata(doc.GeneratedAt, false),
		}, doc.XML, isDefault, "feed.atom.xml", doc.GeneratedAt); err != nil {
			return err
		}
	}

	return nil
}

// writeWithAlias performs the locale-scoped write and, for the default
// locale, repeats it at the root alias path. Content readers cannot be
// reused so each write gets its own reader over the shared bytes.
func (p *Persister) writeWithAlias(ctx context.Context, dirCache map[string]struct{}, manifest *artifactManifest, req WriteFileRequest, body []byte, isDefault bool, aliasPath string, generatedAt time.Time) error {
	req.Content = bytes.NewReader(body)
	if err := p.write(ctx, dirCache, manifest, req); err != nil {
		return err
	}
	if !isDefault || aliasPath == "" {
		return nil
	}
	alias := req
	alias.Path = aliasPath
	alias.Content = bytes.NewReader(body)
	alias.Metadata = artifactMetadata(generatedAt, true)
	return p.write(ctx, dirCache, manifest, alias)
}

func (p *Persister) write(ctx context.Context, dirCache map[string]struct{}, manifest *artifactManifest, req WriteFileRequest) error {
	if err := ensureDir(ctx, p.writer, dirCache, path.Dir(req.Path)); err != nil {
		return err
	}
	if err := p.writer.WriteFile(ctx, req); err != nil {
		return err
	}
	if manifest != nil {
		manifest.add(req)
	}
	return nil
}

func ensureDir(ctx context.Context, writer ArtifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.Trim(dir, " ")
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func artifactMetadata(generatedAt time.Time, alias bool) map[string]string {
	meta := map[string]string{}
	if !generatedAt.IsZero() {
		meta["generated_at"] = generatedAt.UTC().Format(time.RFC3339)
	}
	if alias {
		meta["alias"] = "true"
	}
	return meta
}
