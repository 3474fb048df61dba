package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sitemap "github.com/goliatone/go-sitemap"
	"github.com/goliatone/go-sitemap/routes"
)

const addr = ":8080"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	contentDir, err := os.MkdirTemp("", "sitemap-example-")
	if err != nil {
		log.Fatalf("content dir: %v", err)
	}
	defer os.RemoveAll(contentDir)
	if err := seedContent(contentDir); err != nil {
		log.Fatalf("seed content: %v", err)
	}

	cfg := sitemap.DefaultConfig()
	cfg.Site.Title = "Academy"
	cfg.Site.Description = "Product guides and release notes."
	cfg.Site.DefaultLocale = "en"
	cfg.Site.Locales = []sitemap.LocaleConfig{
		{Code: "en", CanonicalBase: "http://localhost:8080/en"},
		{Code: "es", CanonicalBase: "http://localhost:8080/es", Fallback: "en"},
	}
	cfg.Site.StaticPaths = []string{"/", "/pricing"}
	cfg.Site.DisallowedPaths = []string{"/drafts"}
	cfg.Generator.GenerateFeeds = true
	cfg.Sources.Markdown.Enabled = true
	cfg.Sources.Markdown.ContentDir = contentDir
	cfg.Watcher.Enabled = true
	cfg.Watcher.Path = contentDir
	cfg.HTTP.Enabled = true
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"

	svc, err := sitemap.New(cfg)
	if err != nil {
		log.Fatalf("initialise sitemap: %v", err)
	}
	defer svc.Close()

	if err := svc.Routes().Add("en", routes.RouteEntry{
		Path:         "releases/2026-03",
		Title:        "March 2026 Release",
		Summary:      "Highlights from the March release.",
		LastModified: time.Now().UTC(),
	}); err != nil {
		log.Fatalf("seed routes: %v", err)
	}

	if err := svc.RebuildAll(ctx); err != nil {
		log.Fatalf("initial build: %v", err)
	}
	for _, status := range svc.StatusAll() {
		fmt.Printf("locale %-3s state=%-6s entries=%d warnings=%d\n",
			status.Locale, status.State, status.EntryCount, status.WarningCount)
	}

	mux := http.NewServeMux()
	if err := svc.HTTP().Register(mux); err != nil {
		log.Fatalf("register http surface: %v", err)
	}

	fmt.Printf("serving on http://localhost%s\n", addr)
	fmt.Println("  GET  /en/sitemap.xml /en/robots.txt /en/feed.xml /en/atom.xml")
	fmt.Println("  GET  /sitemap.xml (default locale alias)")
	fmt.Println("  GET  /sitemaps/status")
	fmt.Println(`  POST /sitemaps/revalidate {"locale": "es", "reason": "deploy"}`)
	fmt.Printf("edit markdown under %s to trigger revalidation\n", contentDir)

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func seedContent(dir string) error {
	files := map[string]string{
		"en/guides/routing.md": "---\n" +
			"title: Routing Guide\n" +
			"summary: How locale routing works.\n" +
			"date: 2026-02-10T09:00:00Z\n" +
			"change_frequency: monthly\n" +
			"---\n\n" +
			"Every locale serves its own canonical base.\n",
		"en/guides/feeds.md": "---\n" +
			"title: Feeds Guide\n" +
			"summary: RSS and Atom generation.\n" +
			"date: 2026-03-02T12:00:00Z\n" +
			"priority: 0.8\n" +
			"---\n\n" +
			"Feeds rank entries by last modification.\n",
		"es/guias/rutas.md": "---\n" +
			"title: Guia de Rutas\n" +
			"summary: Como funcionan las rutas por idioma.\n" +
			"date: 2026-02-11T09:00:00Z\n" +
			"---\n\n" +
			"Cada idioma sirve su propia base.\n",
	}
	for rel, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}
