// Package fetch implements the Fetcher interface.
// It performs single-attempt HTTP GET requests with a fixed browser-like
// header set and reports every result as a core.FetchOutcome.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gaurav-prasanna/pagesnap/core"
)

const (
	// DefaultUserAgent mimics a common desktop browser to avoid trivial bot blocking.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultMaxBytes  = 10 << 20
	maxRedirects     = 10
)

// HTTPFetcher fetches resources via HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithClient replaces the underlying HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithLogger sets the logger used for per-attempt debug records.
func WithLogger(l *slog.Logger) Option {
	return func(f *HTTPFetcher) { f.logger = l }
}

// New creates an HTTPFetcher. Timeouts are chosen per call, so the client
// itself carries none.
func New(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		maxBytes:  defaultMaxBytes,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// UserAgent returns the User-Agent header sent with every request.
func (f *HTTPFetcher) UserAgent() string {
	return f.userAgent
}

// Fetch performs one GET of url bounded by timeout. Only a 200 response is a
// success; the final URL after redirects is reported in the outcome.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) core.FetchOutcome {
	start := time.Now()
	out := f.do(ctx, url, timeout)
	out.Duration = time.Since(start)

	f.logger.Debug("fetch",
		"url", url,
		"status", out.StatusCode,
		"bytes", len(out.Body),
		"duration", out.Duration,
		"ok", out.OK(),
	)
	return out
}

func (f *HTTPFetcher) do(ctx context.Context, url string, timeout time.Duration) core.FetchOutcome {
	out := core.FetchOutcome{URL: url}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		out.Err = fmt.Errorf("creating request: %w", err)
		return out
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		out.Err = fmt.Errorf("fetching %s: %w", url, err)
		return out
	}
	defer resp.Body.Close()

	out.StatusCode = resp.StatusCode
	out.ContentType = resp.Header.Get("Content-Type")
	if resp.Request != nil && resp.Request.URL != nil {
		out.URL = resp.Request.URL.String()
	}

	if resp.StatusCode != http.StatusOK {
		out.Err = fmt.Errorf("%w %d for %s", core.ErrBadStatus, resp.StatusCode, url)
		return out
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		out.Err = fmt.Errorf("reading response body: %w", err)
		return out
	}
	if int64(len(body)) > f.maxBytes {
		out.Err = fmt.Errorf("%w: %s exceeds %d bytes", core.ErrTooLarge, url, f.maxBytes)
		return out
	}
	out.Body = body
	return out
}
