// Package extract reads content out of a snapshot document.
// Extract isolates the main content for text exports by:
//  1. Removing noise elements (nav, footer, scripts, inlined styles, etc.)
//  2. Picking the best content container (<main>, <article>, or <body>)
//
// Metadata pulls title and language for reports.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed before extraction. Inlined styles and scripts
// are the bulk of a snapshot but carry no readable text.
var noiseSelectors = []string{
	"script", "style", "noscript", "link", "template",
	"nav", "footer", "header",
	"img", "picture", "figure", "figcaption",
	"iframe", "video", "audio",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
}

// HTMLExtractor strips noise from HTML and returns the main content fragment.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// containers are tried in order; among several matches of one selector the
// one with the most text wins.
var containers = []string{"main", `[role="main"]`, "article"}

// Extract takes snapshot HTML and returns the main content fragment. Inlined
// stylesheets and scripts are dropped first, so their bodies never count as
// content when the container is chosen.
func (e *HTMLExtractor) Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	doc.Find(strings.Join(noiseSelectors, ", ")).Remove()

	content := doc.Find("body").First()
	for _, sel := range containers {
		if best := largest(doc.Find(sel)); best != nil {
			content = best
			break
		}
	}
	if content.Length() == 0 {
		return "", fmt.Errorf("no content container found in HTML")
	}

	out, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	return out, nil
}

// largest returns the element of sel with the longest trimmed text, or nil
// when sel is empty or holds no text at all.
func largest(sel *goquery.Selection) *goquery.Selection {
	var (
		best *goquery.Selection
		size int
	)
	sel.Each(func(_ int, s *goquery.Selection) {
		if n := len(strings.TrimSpace(s.Text())); n > size {
			best, size = s, n
		}
	})
	return best
}
