package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Category labels the kind of artifact routed through the writer.
type Category string

const (
	CategorySitemap  Category = "sitemap"
	CategoryRobots   Category = "robots"
	CategoryFeed     Category = "feed"
	CategoryManifest Category = "manifest"
)

// WriteFileRequest describes one artifact write routed through the writer.
type WriteFileRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Locale      string
	Category    Category
	ContentType string
	Checksum    string
	Metadata    map[string]string
}

// ArtifactWriter abstracts persistence specifics for generated documents.
type ArtifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req WriteFileRequest) error
}

// NewNoopWriter returns a writer that discards every artifact. Used when
// persistence is disabled and documents are served from memory only.
func NewNoopWriter() ArtifactWriter { return noopWriter{} }

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, WriteFileRequest) error { return nil }

// NewFSWriter returns a writer rooted at dir. Artifact paths are
// slash-separated and relative; paths escaping the root are rejected.
func NewFSWriter(dir string) (ArtifactWriter, error) {
	root := strings.TrimSpace(dir)
	if root == "" {
		return nil, errors.New("builder: fs writer requires an output directory")
	}
	return &fsWriter{root: root}, nil
}

type fsWriter struct {
	root string
}

func (w *fsWriter) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := normalizeArtifactPath(dir)
	if err != nil {
		return err
	}
	if rel == "" {
		return os.MkdirAll(w.root, 0o755)
	}
	return os.MkdirAll(filepath.Join(w.root, filepath.FromSlash(rel)), 0o755)
}

func (w *fsWriter) WriteFile(ctx context.Context, req WriteFileRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Content == nil {
		return errors.New("builder: write requires content reader")
	}
	rel, err := normalizeArtifactPath(req.Path)
	if err != nil {
		return err
	}
	if rel == "" {
		return errors.New("builder: write requires path")
	}
	data, err := io.ReadAll(req.Content)
	if err != nil {
		return fmt.Errorf("builder: read artifact %s: %w", rel, err)
	}
	target := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

// normalizeArtifactPath cleans a slash-separated artifact path and rejects
// anything that would escape the writer root.
func normalizeArtifactPath(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "." {
		return "", nil
	}
	cleaned := path.Clean(strings.TrimLeft(trimmed, "/"))
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("builder: artifact path %q escapes output root", raw)
	}
	return cleaned, nil
}
