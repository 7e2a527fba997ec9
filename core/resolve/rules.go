// Package resolve holds URL rules for snapshot targets and subresource references.
// Provides helpers to normalize user input, resolve attribute values against
// a page base, and recognize font files.
package resolve

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// fontExtensions are the font file extensions looked for inside CSS.
var fontExtensions = []string{".woff2", ".woff", ".ttf"}

// NormalizeTarget trims user input and prepends https:// when no
// http:// or https:// prefix is present.
func NormalizeTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", core.ErrEmptyURL
	}
	if !HasHTTPScheme(target) {
		target = "https://" + target
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return target, nil
}

// HasHTTPScheme reports whether s starts with http:// or https://, ignoring case.
func HasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Reference resolves a raw attribute value against base.
// Empty values and references that do not resolve to http(s) fail.
func Reference(base *url.URL, raw string) (string, error) {
	ref := strings.TrimSpace(raw)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing reference %q: %w", raw, err)
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", resolved.Scheme, raw)
	}
	// Fragments never reach the server.
	resolved.Fragment = ""
	return resolved.String(), nil
}

// Base returns the URL that relative references in the page resolve against:
// the page URL, overridden by a <base href> value when one is present.
func Base(pageURL *url.URL, baseHref string) *url.URL {
	baseHref = strings.TrimSpace(baseHref)
	if baseHref == "" {
		return pageURL
	}
	parsed, err := url.Parse(baseHref)
	if err != nil {
		return pageURL
	}
	return pageURL.ResolveReference(parsed)
}

// IsFontURL checks if a URL's path ends in a known font extension.
func IsFontURL(rawURL string) bool {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		p = parsed.Path
	}
	ext := strings.ToLower(path.Ext(p))
	for _, fe := range fontExtensions {
		if ext == fe {
			return true
		}
	}
	return false
}

// ContainsFontReference is the substring check used on style text:
// a url( token together with one of the font extensions.
func ContainsFontReference(css string) bool {
	if !strings.Contains(css, "url(") {
		return false
	}
	for _, ext := range fontExtensions {
		if strings.Contains(css, ext) {
			return true
		}
	}
	return false
}

// IsDataURI reports whether s is already an inline data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "data:")
}
