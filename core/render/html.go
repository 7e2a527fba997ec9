// Package render provides output renderers for snapshots.
// The HTML renderer is the primary one: it returns the assembled markup
// unchanged. The others derive text exports from it.
package render

import (
	"errors"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// HTMLRenderer writes the snapshot markup as-is.
type HTMLRenderer struct{}

// NewHTMLRenderer creates an HTMLRenderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

// Render returns the snapshot markup as bytes.
func (r *HTMLRenderer) Render(snap *core.Snapshot) ([]byte, error) {
	if snap == nil || snap.Markup == "" {
		return nil, errors.New("empty snapshot")
	}
	return []byte(snap.Markup), nil
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}
