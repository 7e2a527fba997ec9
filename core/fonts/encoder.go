// Package fonts embeds font files referenced from CSS as base64 data URIs.
package fonts

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/gaurav-prasanna/pagesnap/core/resolve"
)

const (
	defaultTimeout     = 5 * time.Second
	defaultContentType = "font/woff2"
)

// urlToken matches url(...) tokens with optional single or double quotes.
// This is substring-level detection; CSS is not parsed.
var urlToken = regexp.MustCompile(`url\(\s*(['"]?)([^'")]+?)(['"]?)\s*\)`)

// Encoder fetches fonts and returns them as data URIs.
type Encoder struct {
	fetcher core.Fetcher
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithTimeout sets the per-font fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Encoder) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger used for font failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Encoder) { e.logger = l }
}

// New creates an Encoder on top of fetcher.
func New(fetcher core.Fetcher, opts ...Option) *Encoder {
	e := &Encoder{
		fetcher: fetcher,
		timeout: defaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Encode returns data:<content-type>;base64,<payload> for the font at rawURL.
// On any failure the original URL is returned unchanged.
func (e *Encoder) Encode(ctx context.Context, rawURL string) string {
	out := e.fetcher.Fetch(ctx, rawURL, e.timeout)
	if !out.OK() {
		e.logger.Error("font fetch failed", "url", rawURL, "error", out.Err)
		return rawURL
	}
	return DataURI(out.ContentType, out.Body)
}

// DataURI builds a base64 data URI, defaulting the content type to font/woff2.
func DataURI(contentType string, body []byte) string {
	if contentType == "" {
		contentType = defaultContentType
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)
}

// Rewrite is the result of RewriteCSS.
type Rewrite struct {
	CSS     string
	Fetched int // distinct font URLs fetched
	Inlined int // url(...) tokens replaced with data URIs
}

// RewriteCSS replaces font URLs inside url(...) tokens with data URIs.
// Relative URLs resolve against base. At most max distinct fonts are
// fetched; a font that fails to encode keeps its original token.
func (e *Encoder) RewriteCSS(ctx context.Context, css string, base *url.URL, max int) Rewrite {
	res := Rewrite{CSS: css}
	if !resolve.ContainsFontReference(css) {
		return res
	}

	encoded := make(map[string]string)

	res.CSS = urlToken.ReplaceAllStringFunc(css, func(token string) string {
		m := urlToken.FindStringSubmatch(token)
		raw := strings.TrimSpace(m[2])
		if resolve.IsDataURI(raw) || !resolve.IsFontURL(raw) {
			return token
		}
		abs, err := resolve.Reference(base, raw)
		if err != nil {
			return token
		}

		data, seen := encoded[abs]
		if !seen {
			if res.Fetched >= max {
				return token
			}
			data = e.Encode(ctx, abs)
			encoded[abs] = data
			res.Fetched++
		}
		if data == abs {
			return token
		}
		res.Inlined++
		return `url("` + data + `")`
	})

	return res
}
