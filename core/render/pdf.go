package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer prints the Markdown form of a snapshot with gofpdf. Headings,
// paragraphs, code blocks and lists are styled; images are dropped.
type PDFRenderer struct {
	md *MarkdownRenderer
}

// NewPDFRenderer creates a PDFRenderer on top of a Markdown renderer.
func NewPDFRenderer(md *MarkdownRenderer) *PDFRenderer {
	return &PDFRenderer{md: md}
}

// Render converts the snapshot into PDF bytes.
func (r *PDFRenderer) Render(snap *core.Snapshot) ([]byte, error) {
	markdown, err := r.md.Markdown(snap)
	if err != nil {
		return nil, err
	}
	meta := snap.Metadata
	if meta.URL == "" {
		meta.URL = snap.TargetURL
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if meta.Title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, tr(meta.Title), "", "L", false)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("Snapshot of %s (%d resources inlined)", meta.URL, snap.Inlined)), "", "L", false)
	if meta.FetchedAt != "" {
		pdf.MultiCell(0, 5, "Fetched "+meta.FetchedAt, "", "L", false)
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	inFence := false
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			pdf.Ln(2)
			continue
		}
		if inFence {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			continue
		}

		switch {
		case trimmed == "":
			pdf.Ln(3)
		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			renderHeading(pdf, tr(cleanInlineMarkdown(strings.TrimLeft(trimmed, "# "))), level)
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr("\u2022 "+cleanInlineMarkdown(trimmed[2:])), "", "L", false)
		case orderedItem.MatchString(trimmed):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(trimmed)), "", "L", false)
		case tableRule.MatchString(trimmed):
			// separator row of a Markdown table
		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(line)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	orderedItem = regexp.MustCompile(`^\d+\.\s`)
	tableRule   = regexp.MustCompile(`^\|[-:| ]+\|$`)
	boldMarks   = strings.NewReplacer("**", "", "__", "")
	italicSpan  = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	codeSpan    = regexp.MustCompile("`([^`]+)`")
	linkSpan    = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]+\)`)
)

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// renderHeading sizes the font by heading level.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	size := 10.0
	if level >= 1 && level <= 5 {
		size = []float64{18, 15, 13, 12, 11}[level-1]
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, text, "", "L", false)
	pdf.Ln(2)
}

// cleanInlineMarkdown strips inline emphasis, code and link syntax.
func cleanInlineMarkdown(text string) string {
	text = boldMarks.Replace(text)
	text = italicSpan.ReplaceAllString(text, " $1 ")
	text = codeSpan.ReplaceAllString(text, "$1")
	text = linkSpan.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
