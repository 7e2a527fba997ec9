package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// Report is the JSON form of a snapshot: what was fetched, what was inlined
// and what was left external, plus a heading outline of the main content.
type Report struct {
	*core.Snapshot
	Bytes    int       `json:"bytes"`
	Failed   int       `json:"failed"`
	Skipped  int       `json:"skipped"`
	Headings []Heading `json:"headings"`
	Markup   string    `json:"markup,omitempty"`
}

// Heading is one Markdown heading of the main content.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// JSONRenderer produces a snapshot report.
type JSONRenderer struct {
	md            *MarkdownRenderer
	includeMarkup bool
}

// NewJSONRenderer creates a JSONRenderer. With includeMarkup the full
// snapshot HTML is embedded in the report.
func NewJSONRenderer(md *MarkdownRenderer, includeMarkup bool) *JSONRenderer {
	return &JSONRenderer{md: md, includeMarkup: includeMarkup}
}

// Render builds the report and marshals it with indentation.
func (r *JSONRenderer) Render(snap *core.Snapshot) ([]byte, error) {
	rep := Report{
		Snapshot: snap,
		Bytes:    len(snap.Markup),
		Headings: []Heading{},
	}
	for _, ref := range snap.References {
		switch ref.State {
		case core.StateFailed:
			rep.Failed++
		case core.StateSkipped:
			rep.Skipped++
		}
	}
	if r.includeMarkup {
		rep.Markup = snap.Markup
	}
	if r.md != nil {
		md, err := r.md.Markdown(snap)
		if err != nil {
			return nil, err
		}
		rep.Headings = extractHeadings(md)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

func extractHeadings(md string) []Heading {
	matches := headingRegex.FindAllStringSubmatch(md, -1)
	headings := make([]Heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	return headings
}
