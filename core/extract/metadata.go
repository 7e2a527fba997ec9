package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// Metadata builds PageMetadata from a parsed document and the page URL.
func Metadata(doc *goquery.Document, pageURL string) core.PageMetadata {
	meta := core.PageMetadata{
		URL:       pageURL,
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Language:  "en", // sensible default
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && strings.TrimSpace(lang) != "" {
		meta.Language = strings.TrimSpace(lang)
	}
	if parsed, err := url.Parse(pageURL); err == nil {
		meta.Domain = parsed.Host
		meta.Path = parsed.Path
	}
	return meta
}
