// Package assemble builds offline snapshots. It fetches a page, inlines its
// external stylesheets and scripts up to a resource budget, optionally embeds
// CSS fonts as data URIs, and serializes the result.
//
// Work is strictly sequential: stylesheets before scripts, document order
// within each pass, one fetch at a time.
package assemble

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/gaurav-prasanna/pagesnap/core/extract"
	"github.com/gaurav-prasanna/pagesnap/core/fonts"
	"github.com/gaurav-prasanna/pagesnap/core/prettify"
	"github.com/gaurav-prasanna/pagesnap/core/resolve"
)

// Config bounds one snapshot operation.
type Config struct {
	PageTimeout     time.Duration
	ResourceTimeout time.Duration
	MaxResources    int  // successful stylesheet+script inlines
	InlineFonts     bool // rewrite font url(...) tokens as data URIs
	MaxFonts        int
	Pretty          bool
}

// DefaultConfig returns the standard limits: 10s page, 5s per resource,
// 20 inlined resources.
func DefaultConfig() Config {
	return Config{
		PageTimeout:     10 * time.Second,
		ResourceTimeout: 5 * time.Second,
		MaxResources:    20,
		MaxFonts:        20,
		Pretty:          true,
	}
}

// RobotsChecker decides whether a target page may be fetched.
type RobotsChecker interface {
	Allowed(ctx context.Context, pageURL string) (bool, error)
}

// Assembler turns a page URL into a self-contained snapshot.
type Assembler struct {
	fetcher core.Fetcher
	fonts   *fonts.Encoder
	robots  RobotsChecker
	cfg     Config
	logger  *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger for per-resource and per-snapshot records.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// WithRobots enables a robots.txt check before the page fetch.
func WithRobots(r RobotsChecker) Option {
	return func(a *Assembler) { a.robots = r }
}

// WithFontEncoder replaces the font encoder built from the fetcher.
func WithFontEncoder(e *fonts.Encoder) Option {
	return func(a *Assembler) { a.fonts = e }
}

// New creates an Assembler.
func New(fetcher core.Fetcher, cfg Config, opts ...Option) *Assembler {
	a := &Assembler{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(a)
	}
	if a.fonts == nil {
		a.fonts = fonts.New(fetcher,
			fonts.WithTimeout(cfg.ResourceTimeout),
			fonts.WithLogger(a.logger),
		)
	}
	return a
}

// Snapshot fetches target and returns the inlined document. A failure to
// fetch or parse the page itself is the only error; subresource failures
// are recorded on the snapshot and leave their reference in place.
func (a *Assembler) Snapshot(ctx context.Context, target string) (*core.Snapshot, error) {
	if a.robots != nil {
		ok, err := a.robots.Allowed(ctx, target)
		if err == nil && !ok {
			a.logger.Warn("page disallowed by robots.txt", "url", target)
			return nil, fmt.Errorf("%w: %s: %w", core.ErrPageFetch, target, core.ErrDisallowed)
		}
	}

	page := a.fetcher.Fetch(ctx, target, a.cfg.PageTimeout)
	if !page.OK() {
		a.logger.Error("scrape failed", "url", target, "error", page.Err)
		return nil, fmt.Errorf("%w: %w", core.ErrPageFetch, page.Err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Text()))
	if err != nil {
		a.logger.Error("scrape failed", "url", target, "error", err)
		return nil, fmt.Errorf("%w: parsing HTML: %w", core.ErrPageFetch, err)
	}

	pageURL, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing page URL: %w", core.ErrPageFetch, err)
	}
	baseHref, _ := doc.Find("base[href]").First().Attr("href")

	r := &run{
		Assembler: a,
		doc:       doc,
		base:      resolve.Base(pageURL, baseHref),
		budget:    newBudget(a.cfg.MaxResources),
		styleBase: make(map[*html.Node]*url.URL),
		snap: &core.Snapshot{
			TargetURL:  target,
			References: []core.Reference{},
		},
	}

	r.inlineStylesheets(ctx)
	r.inlineScripts(ctx)
	r.scanFonts(ctx)

	r.snap.Metadata = extract.Metadata(doc, page.URL)
	r.snap.Inlined = r.budget.used

	markup, err := a.serialize(doc)
	if err != nil {
		return nil, fmt.Errorf("serializing snapshot: %w", err)
	}
	r.snap.Markup = markup

	a.logger.Info("snapshot assembled",
		"url", target,
		"inlined", r.snap.Inlined,
		"references", len(r.snap.References),
		"fonts_detected", r.snap.FontsDetected,
		"fonts_inlined", r.snap.FontsInlined,
		"bytes", len(markup),
	)
	return r.snap, nil
}

func (a *Assembler) serialize(doc *goquery.Document) (string, error) {
	root := doc.Nodes[0]
	if a.cfg.Pretty {
		return prettify.String(root)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// run holds the state of one Snapshot call: the tree, its base URL and the
// budget. Nothing here outlives the call.
type run struct {
	*Assembler
	doc    *goquery.Document
	base   *url.URL
	budget *budget
	snap   *core.Snapshot
	// styleBase maps inlined <style> nodes to the stylesheet URL their
	// relative url(...) tokens resolve against.
	styleBase map[*html.Node]*url.URL
}

func (r *run) inlineStylesheets(ctx context.Context) {
	links := r.doc.Find("link[rel]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		return hasToken(rel, "stylesheet")
	})
	r.inline(ctx, links.Nodes, core.KindStylesheet, "href", styleNode)
}

func (r *run) inlineScripts(ctx context.Context) {
	r.inline(ctx, r.doc.Find("script[src]").Nodes, core.KindScript, "src", scriptNode)
}

// inline walks nodes in document order, replacing each successfully fetched
// reference with build(old, text). The pass stops at the first node seen
// with the budget exhausted.
func (r *run) inline(ctx context.Context, nodes []*html.Node, kind core.ResourceKind, attr string, build func(*html.Node, string) *html.Node) {
	for i, n := range nodes {
		raw := attrValue(n, attr)

		if r.budget.exhausted() {
			for _, rest := range nodes[i:] {
				r.record(core.Reference{Kind: kind, Raw: attrValue(rest, attr), State: core.StateSkipped})
			}
			r.logger.Info("resource budget exhausted",
				"kind", kind, "max", r.budget.max, "left_external", len(nodes)-i)
			return
		}

		ref := core.Reference{Kind: kind, Raw: raw, State: core.StatePending}

		abs, err := resolve.Reference(r.base, raw)
		if err != nil {
			r.fail(ref, err)
			continue
		}
		ref.URL = abs

		out := r.fetcher.Fetch(ctx, abs, r.cfg.ResourceTimeout)
		if !out.OK() {
			r.fail(ref, out.Err)
			continue
		}

		repl := build(n, out.Text())
		replaceNode(n, repl)
		r.budget.consume()

		if kind == core.KindStylesheet {
			if u, err := url.Parse(out.URL); err == nil {
				r.styleBase[repl] = u
			}
		}

		ref.State = core.StateInlined
		ref.Bytes = len(out.Body)
		r.record(ref)
	}
}

func (r *run) fail(ref core.Reference, err error) {
	ref.State = core.StateFailed
	ref.Error = err.Error()
	r.logger.Warn("resource left external",
		"kind", ref.Kind, "raw", ref.Raw, "url", ref.URL, "error", err)
	r.record(ref)
}

func (r *run) record(ref core.Reference) {
	r.snap.References = append(r.snap.References, ref)
}

// scanFonts looks at every <style> block for font references. Detection is
// substring based. Rewriting only happens with InlineFonts set.
func (r *run) scanFonts(ctx context.Context) {
	remaining := r.cfg.MaxFonts

	r.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		css := s.Text()
		if !resolve.ContainsFontReference(css) {
			return
		}
		r.snap.FontsDetected++
		r.logger.Info("font detected in inline style", "url", r.snap.TargetURL)

		if !r.cfg.InlineFonts || remaining <= 0 {
			return
		}

		node := s.Nodes[0]
		base := r.base
		if b, ok := r.styleBase[node]; ok {
			base = b
		}

		res := r.fonts.RewriteCSS(ctx, css, base, remaining)
		remaining -= res.Fetched
		if res.Inlined > 0 {
			setText(node, res.CSS)
			r.snap.FontsInlined += res.Inlined
		}
	})
}

// styleNode builds the inline replacement for a stylesheet link.
func styleNode(old *html.Node, css string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	if media := attrValue(old, "media"); media != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "media", Val: media})
	}
	css = styleCloser.ReplaceAllStringFunc(css, escapeCloser)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	return n
}

// Closers that would end a raw-text element early.
var (
	styleCloser  = regexp.MustCompile(`(?i)</style`)
	scriptCloser = regexp.MustCompile(`(?i)</script`)
)

// escapeCloser turns "</tag" into "<\/tag", which CSS and JS both read as
// the same characters.
func escapeCloser(m string) string {
	return `<\/` + m[2:]
}

// scriptNode builds the inline replacement for an external script.
func scriptNode(old *html.Node, js string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	if typ := attrValue(old, "type"); typ != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "type", Val: typ})
	}
	js = scriptCloser.ReplaceAllStringFunc(js, escapeCloser)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: js})
	return n
}

func replaceNode(old, repl *html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	parent.InsertBefore(repl, old)
	parent.RemoveChild(old)
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasToken reports whether the space-separated list contains tok, ignoring case.
func hasToken(list, tok string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, tok) {
			return true
		}
	}
	return false
}
