package feed

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"
	"golang.org/x/sync/errgroup"

	"arkfeed.dev/arkfeed/internal/config"
	"arkfeed.dev/arkfeed/internal/output"
)

// Scrape statuses reported to a Progress
const (
	StatusPending  = "pending"
	StatusScraping = "scraping"
	StatusDone     = "done"
	StatusEmpty    = "empty"
	StatusError    = "error"
)

// Progress receives per-article scrape updates.
// Update may be called from several goroutines.
type Progress interface {
	Start(titles []string)
	Update(idx int, status string, err error)
	Complete()
}

// Entry is one enriched item of the generated feed
type Entry struct {
	SourceItem
	Content string
	// Err is the scrape failure, if any; Content is empty when set
	Err error
}

// Feed is the generated document before rendering
type Feed struct {
	Title       string
	Link        string
	Description string
	Entries     []Entry
}

// Stats summarizes one generation
type Stats struct {
	Items   int
	Scraped int
	Empty   int
	Failed  int
	Path    string
}

// Generator builds the full-text feed
type Generator struct {
	cfg       config.Feed
	client    *http.Client
	userAgent string
	splog     *output.Splog
	progress  Progress
}

// GeneratorOption configures the generator.
type GeneratorOption func(*Generator)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) GeneratorOption {
	return func(g *Generator) {
		g.client = client
	}
}

// WithProgress reports per-article progress.
func WithProgress(p Progress) GeneratorOption {
	return func(g *Generator) {
		g.progress = p
	}
}

// NewGenerator creates a generator for cfg
func NewGenerator(cfg config.Feed, splog *output.Splog, opts ...GeneratorOption) *Generator {
	httpCfg := DefaultHTTPConfig()
	if cfg.RequestTimeout > 0 {
		httpCfg.Timeout = cfg.RequestTimeout
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	g := &Generator{
		cfg:       cfg,
		client:    NewHTTPClient(httpCfg),
		userAgent: cfg.UserAgent,
		splog:     splog,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Build fetches the source feed and scrapes every article.
// Only a source feed failure is returned; article failures are recorded per entry.
func (g *Generator) Build(ctx context.Context) (*Feed, error) {
	items, err := g.FetchSource(ctx)
	if err != nil {
		return nil, err
	}
	g.splog.Debug("Fetched %d items from %s", len(items), g.cfg.SourceURL)

	entries := make([]Entry, len(items))
	titles := make([]string, len(items))
	for i, item := range items {
		entries[i].SourceItem = item
		titles[i] = item.Title
	}
	if g.progress != nil {
		g.progress.Start(titles)
		defer g.progress.Complete()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Concurrency)
	for i := range entries {
		eg.Go(func() error {
			entry := &entries[i]
			g.report(i, StatusScraping, nil)

			content, err := g.Scrape(egCtx, entry.Link)
			switch {
			case err != nil:
				entry.Err = err
				g.splog.Error("Error scraping %s: %v", entry.Link, err)
				g.report(i, StatusError, err)
			case content == "":
				g.splog.Warn("No matching styled paragraphs for: %s", entry.Title)
				g.report(i, StatusEmpty, nil)
			default:
				entry.Content = content
				g.splog.Debug("Extracted paragraphs for: %s", entry.Title)
				g.report(i, StatusDone, nil)
			}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("feed generation interrupted: %w", err)
	}

	return &Feed{
		Title:       g.cfg.Title,
		Link:        g.cfg.Link,
		Description: g.cfg.Description,
		Entries:     entries,
	}, nil
}

func (g *Generator) report(idx int, status string, err error) {
	if g.progress != nil {
		g.progress.Update(idx, status, err)
	}
}

// Render serializes the feed as RSS 2.0. Article bodies go in content:encoded as CDATA.
// The channel carries no build timestamp, so unchanged input renders identical bytes.
func Render(f *Feed) (string, error) {
	out := &feeds.Feed{
		Title:       f.Title,
		Link:        &feeds.Link{Href: f.Link},
		Description: f.Description,
	}
	for _, entry := range f.Entries {
		out.Items = append(out.Items, &feeds.Item{
			Title:       entry.Title,
			Link:        &feeds.Link{Href: entry.Link},
			Description: entry.Description,
			Content:     entry.Content,
			Created:     entry.Published,
		})
	}

	rss, err := out.ToRss()
	if err != nil {
		return "", fmt.Errorf("failed to render feed: %w", err)
	}
	return rss, nil
}

// WriteFile atomically replaces path with data, creating parent directories
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".arkfeed-*.xml")
	if err != nil {
		return fmt.Errorf("failed to write feed file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write feed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write feed file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write feed file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write feed file: %w", err)
	}
	return nil
}

// Run builds, renders and writes the feed to path.
// A write failure is an error, unlike a single article failure.
func (g *Generator) Run(ctx context.Context, path string) (*Stats, error) {
	start := time.Now()
	g.splog.Debug("Starting feed enrichment from %s", g.cfg.SourceURL)

	f, err := g.Build(ctx)
	if err != nil {
		return nil, err
	}

	rss, err := Render(f)
	if err != nil {
		return nil, err
	}
	if err := WriteFile(path, []byte(rss)); err != nil {
		return nil, err
	}

	stats := &Stats{Items: len(f.Entries), Path: path}
	for _, entry := range f.Entries {
		switch {
		case entry.Err != nil:
			stats.Failed++
		case entry.Content == "":
			stats.Empty++
		default:
			stats.Scraped++
		}
	}

	g.splog.Info("Full-content feed written to %s (%d items, %d failed) in %s",
		path, stats.Items, stats.Failed, time.Since(start).Round(time.Millisecond))
	return stats, nil
}
