package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// SourceItem is one entry of the upstream feed, cleaned
type SourceItem struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
}

// fetch issues a GET and returns the body of a 2xx response.
// The caller closes the body.
func (g *Generator) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return resp.Body, nil
}

// FetchSource downloads and parses the upstream feed.
func (g *Generator) FetchSource(ctx context.Context) ([]SourceItem, error) {
	body, err := g.fetch(ctx, g.cfg.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source feed: %w", err)
	}
	defer func() { _ = body.Close() }()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source feed %s: %w", g.cfg.SourceURL, err)
	}

	items := make([]SourceItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		src := SourceItem{
			Title:       CleanText(item.Title),
			Link:        item.Link,
			Description: CleanText(item.Description),
		}
		if item.PublishedParsed != nil {
			src.Published = *item.PublishedParsed
		}
		items = append(items, src)
	}
	return items, nil
}
