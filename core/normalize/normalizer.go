// Package normalize implements the Normalizer interface.
// It converts extracted snapshot HTML into Markdown for the text exports.
package normalize

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// MarkdownNormalizer converts HTML to Markdown using html-to-markdown.
type MarkdownNormalizer struct {
	conv *converter.Converter
}

// New creates a MarkdownNormalizer with CommonMark and table support.
func New() *MarkdownNormalizer {
	return &MarkdownNormalizer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Normalize converts a cleaned HTML fragment into Markdown. Relative links
// and image sources are made absolute against pageURL when it is set.
func (n *MarkdownNormalizer) Normalize(html, pageURL string) (string, error) {
	var (
		markdown string
		err      error
	)
	if pageURL != "" {
		markdown, err = n.conv.ConvertString(html, converter.WithDomain(pageURL))
	} else {
		markdown, err = n.conv.ConvertString(html)
	}
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return markdown, nil
}
