package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

const robotsTimeout = 5 * time.Second

// RobotsPolicy answers whether a page may be fetched according to its
// host's robots.txt. Any problem reading robots.txt allows the fetch.
type RobotsPolicy struct {
	client    *http.Client
	userAgent string
}

// NewRobotsPolicy creates a policy that identifies itself as userAgent.
func NewRobotsPolicy(userAgent string) *RobotsPolicy {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RobotsPolicy{
		client:    &http.Client{Timeout: robotsTimeout},
		userAgent: userAgent,
	}
}

// Allowed fetches robots.txt for the host of pageURL and tests the path.
func (p *RobotsPolicy) Allowed(ctx context.Context, pageURL string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("parsing URL: %w", err)
	}
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true, nil
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return true, nil
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return true, nil
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return robots.TestAgent(target, p.userAgent), nil
}
