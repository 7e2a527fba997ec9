// Package core defines the snapshot pipeline types and interfaces for pagesnap.
// Each stage of the pipeline is a small, testable interface.
package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

var (
	// ErrPageFetch marks the one fatal path: the target page could not be fetched or parsed.
	ErrPageFetch = errors.New("page fetch failed")
	// ErrBadStatus is wrapped by fetch failures caused by a non-200 response.
	ErrBadStatus = errors.New("unexpected status")
	// ErrTooLarge is wrapped by fetch failures whose body exceeds the size cap.
	ErrTooLarge = errors.New("response body too large")
	// ErrDisallowed is returned when robots.txt forbids fetching the target page.
	ErrDisallowed = errors.New("disallowed by robots.txt")
	// ErrEmptyURL is returned when no target URL was supplied.
	ErrEmptyURL = errors.New("empty url")
)

// FetchOutcome is the explicit result of a single fetch attempt.
// Exactly one of Body (on success) or Err (on failure) is meaningful.
type FetchOutcome struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Err         error
	Duration    time.Duration
}

// OK reports whether the fetch succeeded.
func (o FetchOutcome) OK() bool {
	return o.Err == nil
}

// Text returns the body decoded to UTF-8. A charset declared in the content
// type wins; otherwise valid UTF-8 is kept and anything else is sniffed.
func (o FetchOutcome) Text() string {
	var (
		r   io.Reader
		err error
	)
	label := declaredCharset(o.ContentType)
	switch {
	case label != "" && !strings.EqualFold(label, "utf-8") && !strings.EqualFold(label, "utf8"):
		r, err = charset.NewReaderLabel(label, bytes.NewReader(o.Body))
	case utf8.Valid(o.Body):
		return string(o.Body)
	default:
		r, err = charset.NewReader(bytes.NewReader(o.Body), o.ContentType)
	}
	if err != nil {
		return string(o.Body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(o.Body)
	}
	return string(decoded)
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// ResourceKind classifies an external reference.
type ResourceKind string

const (
	KindStylesheet ResourceKind = "stylesheet"
	KindScript     ResourceKind = "script"
	KindFont       ResourceKind = "font"
)

// RefState is the consumption state of an external reference.
type RefState string

const (
	StatePending RefState = "pending"
	StateInlined RefState = "inlined"
	StateFailed  RefState = "failed"  // fetch failed, reference left in place
	StateSkipped RefState = "skipped" // budget exhausted, reference left in place
)

// Reference records what happened to one external reference during a snapshot.
type Reference struct {
	Kind  ResourceKind `json:"kind"`
	Raw   string       `json:"raw"`
	URL   string       `json:"url,omitempty"`
	State RefState     `json:"state"`
	Error string       `json:"error,omitempty"`
	Bytes int          `json:"bytes,omitempty"`
}

// PageMetadata holds metadata extracted from the page and URL.
type PageMetadata struct {
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	Path      string `json:"path"`
	Title     string `json:"title"`
	Language  string `json:"language"`
	FetchedAt string `json:"fetched_at"` // ISO8601
}

// Snapshot is the product of one snapshot operation.
type Snapshot struct {
	TargetURL     string       `json:"target_url"`
	Markup        string       `json:"-"`
	Metadata      PageMetadata `json:"metadata"`
	References    []Reference  `json:"references"`
	Inlined       int          `json:"inlined"`
	FontsDetected int          `json:"fonts_detected"`
	FontsInlined  int          `json:"fonts_inlined"`
}

// Fetcher retrieves a single resource with a caller-chosen timeout.
// Failures are reported in the outcome, never as a panic.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) FetchOutcome
}

// Extractor pulls the main content from raw HTML, stripping noise.
type Extractor interface {
	Extract(html string) (string, error)
}

// Normalizer converts cleaned HTML into Markdown.
type Normalizer interface {
	Normalize(html string, pageURL string) (string, error)
}

// Renderer converts a snapshot into a final output format.
type Renderer interface {
	Render(snap *Snapshot) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".html", ".pdf").
	Extension() string
}
