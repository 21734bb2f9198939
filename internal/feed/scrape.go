package feed

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// IsArticleParagraph reports whether a <p> style attribute marks article body text
func IsArticleParagraph(style string) bool {
	return strings.Contains(style, "Georgia") &&
		(strings.Contains(style, "18px") || strings.Contains(style, "1.5em"))
}

// ExtractContent returns the cleaned outer HTML of every article paragraph,
// newline separated. A page without matching paragraphs yields "".
func ExtractContent(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	var paragraphs []string
	var walkErr error
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		style, _ := p.Attr("style")
		if !IsArticleParagraph(style) {
			return true
		}
		html, err := goquery.OuterHtml(p)
		if err != nil {
			walkErr = err
			return false
		}
		paragraphs = append(paragraphs, CleanText(html))
		return true
	})
	if walkErr != nil {
		return "", fmt.Errorf("failed to render paragraph: %w", walkErr)
	}

	return strings.Join(paragraphs, "\n"), nil
}

// Scrape fetches one article page and extracts its body.
func (g *Generator) Scrape(ctx context.Context, url string) (string, error) {
	body, err := g.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	return ExtractContent(body)
}
