package render

import (
	"fmt"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// MarkdownRenderer reduces a snapshot to its main content as Markdown.
type MarkdownRenderer struct {
	extractor  core.Extractor
	normalizer core.Normalizer
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer(extractor core.Extractor, normalizer core.Normalizer) *MarkdownRenderer {
	return &MarkdownRenderer{extractor: extractor, normalizer: normalizer}
}

// Markdown runs extract then normalize over the snapshot markup.
func (r *MarkdownRenderer) Markdown(snap *core.Snapshot) (string, error) {
	content, err := r.extractor.Extract(snap.Markup)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	md, err := r.normalizer.Normalize(content, snap.Metadata.URL)
	if err != nil {
		return "", fmt.Errorf("normalize: %w", err)
	}
	return md, nil
}

// Render returns the Markdown as bytes.
func (r *MarkdownRenderer) Render(snap *core.Snapshot) ([]byte, error) {
	md, err := r.Markdown(snap)
	if err != nil {
		return nil, err
	}
	return []byte(md), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
