package feed_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"arkfeed.dev/arkfeed/internal/config"
	"arkfeed.dev/arkfeed/internal/feed"
	"arkfeed.dev/arkfeed/internal/output"
)

const articleHTML = `<html><body>
<p style="font-family: Georgia; font-size: 18px">The council‚Äôs vote</p>
<p style="font-family: Arial; font-size: 18px">Sidebar</p>
<p style="font-family: Georgia; font-size: 1.5em">Second paragraph</p>
</body></html>`

const emptyArticleHTML = `<html><body><p>Nothing styled here</p></body></html>`

func sourceRSS(base string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>The Ark</title>
<link>%[1]s</link>
<description>blog</description>
<item>
  <title>Town‚Äôs budget</title>
  <link>%[1]s/post/budget</link>
  <description>Summary ‚Äúone‚Äù</description>
  <pubDate>Mon, 04 Mar 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Missing article</title>
  <link>%[1]s/post/missing</link>
  <description>gone</description>
  <pubDate>Sun, 03 Mar 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Photo essay</title>
  <link>%[1]s/post/photos</link>
  <description>pictures</description>
</item>
</channel></rss>`, base)
}

func newArkServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/blog-feed.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = fmt.Fprint(w, sourceRSS(srv.URL))
	})
	mux.HandleFunc("/post/budget", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, articleHTML)
	})
	mux.HandleFunc("/post/photos", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, emptyArticleHTML)
	})
	mux.HandleFunc("/post/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func feedConfig(srv *httptest.Server) config.Feed {
	cfg := config.Default().Feed
	cfg.SourceURL = srv.URL + "/blog-feed.xml"
	return cfg
}

func TestExtractContent(t *testing.T) {
	t.Parallel()

	content, err := feed.ExtractContent(strings.NewReader(articleHTML))
	require.NoError(t, err)
	require.Equal(t,
		`<p style="font-family: Georgia; font-size: 18px">The council's vote</p>`+"\n"+
			`<p style="font-family: Georgia; font-size: 1.5em">Second paragraph</p>`,
		content)

	content, err = feed.ExtractContent(strings.NewReader(emptyArticleHTML))
	require.NoError(t, err)
	require.Empty(t, content)
}

func TestGeneratorBuild(t *testing.T) {
	t.Parallel()
	srv := newArkServer(t)

	var logs bytes.Buffer
	gen := feed.NewGenerator(feedConfig(srv), output.NewSplogWriter(&logs, false))

	f, err := gen.Build(context.Background())
	require.NoError(t, err)

	require.Equal(t, "The Ark Newspaper (Full Text)", f.Title)
	require.Len(t, f.Entries, 3)

	require.Equal(t, "Town's budget", f.Entries[0].Title)
	require.Equal(t, `Summary "one"`, f.Entries[0].Description)
	require.Contains(t, f.Entries[0].Content, "The council's vote")
	require.False(t, f.Entries[0].Published.IsZero())

	require.Equal(t, "Missing article", f.Entries[1].Title)
	require.Error(t, f.Entries[1].Err)
	require.Empty(t, f.Entries[1].Content)

	require.Equal(t, "Photo essay", f.Entries[2].Title)
	require.NoError(t, f.Entries[2].Err)
	require.Empty(t, f.Entries[2].Content)

	require.Contains(t, logs.String(), "Error scraping "+srv.URL+"/post/missing")
	require.Contains(t, logs.String(), "No matching styled paragraphs for: Photo essay")
}

func TestGeneratorKeepsSourceOrderUnderConcurrency(t *testing.T) {
	t.Parallel()
	srv := newArkServer(t)

	cfg := feedConfig(srv)
	cfg.Concurrency = 3
	progress := &recordingProgress{}
	gen := feed.NewGenerator(cfg, output.NewSplogWriter(&bytes.Buffer{}, false), feed.WithProgress(progress))

	f, err := gen.Build(context.Background())
	require.NoError(t, err)

	titles := make([]string, 0, len(f.Entries))
	for _, entry := range f.Entries {
		titles = append(titles, entry.Title)
	}
	require.Equal(t, []string{"Town's budget", "Missing article", "Photo essay"}, titles)

	require.Equal(t, titles, progress.titles)
	require.True(t, progress.completed)
	require.Equal(t, feed.StatusDone, progress.final[0])
	require.Equal(t, feed.StatusError, progress.final[1])
	require.Equal(t, feed.StatusEmpty, progress.final[2])
}

func TestGeneratorSourceFailureIsFatal(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gen := feed.NewGenerator(feedConfig(srv), output.NewSplogWriter(&bytes.Buffer{}, false))
	_, err := gen.Build(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to fetch source feed")
}

func TestGeneratorRun(t *testing.T) {
	t.Parallel()
	srv := newArkServer(t)
	path := filepath.Join(t.TempDir(), "output", "full_feed.xml")

	gen := feed.NewGenerator(feedConfig(srv), output.NewSplogWriter(&bytes.Buffer{}, false))
	stats, err := gen.Run(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, &feed.Stats{Items: 3, Scraped: 1, Empty: 1, Failed: 1, Path: path}, stats)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rss := string(data)

	require.Contains(t, rss, "<title>The Ark Newspaper (Full Text)</title>")
	require.Contains(t, rss, "<link>https://www.thearknewspaper.com/news</link>")
	require.Contains(t, rss, "Full-content RSS feed generated from The Ark Newspaper blog.")
	require.Contains(t, rss, `xmlns:content="http://purl.org/rss/1.0/modules/content/"`)
	require.Contains(t, rss, `<content:encoded><![CDATA[<p style="font-family: Georgia; font-size: 18px">The council's vote</p>`)
	require.Less(t, strings.Index(rss, "Town&#39;s budget"), strings.Index(rss, "Missing article"))

	// unchanged input renders identical bytes
	_, err = gen.Run(context.Background(), path)
	require.NoError(t, err)
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, rss, string(again))
}

func TestGeneratorRunWriteFailure(t *testing.T) {
	t.Parallel()
	srv := newArkServer(t)

	blocker := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0600))

	gen := feed.NewGenerator(feedConfig(srv), output.NewSplogWriter(&bytes.Buffer{}, false))
	_, err := gen.Run(context.Background(), filepath.Join(blocker, "full_feed.xml"))
	require.Error(t, err)
}

type recordingProgress struct {
	mu        sync.Mutex
	titles    []string
	final     map[int]string
	completed bool
}

func (p *recordingProgress) Start(titles []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.titles = titles
	p.final = make(map[int]string)
}

func (p *recordingProgress) Update(idx int, status string, _ error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.final[idx] = status
}

func (p *recordingProgress) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = true
}
