// Package prettify serializes an HTML node tree with one element per line
// and two-space indentation. Whitespace-sensitive elements (script, style,
// pre, textarea and friends) are written verbatim.
package prettify

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

const indentUnit = "  "

// voidElements never have children or an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// verbatimElements are rendered untouched because their content is raw text
// or whitespace sensitive.
var verbatimElements = map[string]bool{
	"script": true, "style": true, "pre": true, "textarea": true,
	"xmp": true, "iframe": true, "noembed": true, "noframes": true,
	"plaintext": true, "noscript": true,
}

// Render writes n and its descendants to w.
func Render(w io.Writer, n *html.Node) error {
	p := &printer{w: w}
	p.node(n, 0)
	return p.err
}

// String renders n to a string.
func String(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) line(depth int, s string) {
	p.write(strings.Repeat(indentUnit, depth))
	p.write(s)
	p.write("\n")
}

func (p *printer) node(n *html.Node, depth int) {
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.node(c, depth)
		}

	case html.DoctypeNode:
		p.line(depth, raw(n))

	case html.CommentNode:
		p.line(depth, "<!--"+n.Data+"-->")

	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		p.line(depth, html.EscapeString(collapse(text)))

	case html.ElementNode:
		if verbatimElements[n.Data] {
			p.line(depth, raw(n))
			return
		}
		p.line(depth, openTag(n))
		if voidElements[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.node(c, depth+1)
		}
		p.line(depth, "</"+n.Data+">")
	}
}

// raw renders n with the standard serializer.
func raw(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func openTag(n *html.Node) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteString(" ")
		if a.Namespace != "" {
			b.WriteString(a.Namespace)
			b.WriteString(":")
		}
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(a.Val))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	return b.String()
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", "\u00a0", "&nbsp;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// collapse folds internal whitespace runs in text to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
