package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// fakeSnapshotter records requested targets and returns a canned result.
type fakeSnapshotter struct {
	mu      sync.Mutex
	targets []string
	markup  string
	err     error
}

func (f *fakeSnapshotter) Snapshot(_ context.Context, target string) (*core.Snapshot, error) {
	f.mu.Lock()
	f.targets = append(f.targets, target)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &core.Snapshot{TargetURL: target, Markup: f.markup, Inlined: 3}, nil
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	h := New(&fakeSnapshotter{}).Handler()

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code, method)
		assert.Contains(t, rec.Body.String(), `action="/preview"`)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	}
}

func TestPreview_Success(t *testing.T) {
	fake := &fakeSnapshotter{markup: `<html><body><p class="x">Hi & bye</p></body></html>`}
	h := New(fake).Handler()

	rec := postForm(t, h, "/preview", url.Values{"url": {"https://example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "srcdoc=")
	assert.Contains(t, body, `name="html_content"`)
	assert.Contains(t, body, "&lt;p class=&#34;x&#34;&gt;Hi &amp; bye&lt;/p&gt;")
	assert.Contains(t, body, "https://example.com")
	assert.Equal(t, []string{"https://example.com"}, fake.targets)
}

func TestPreview_PrependsSchemeOnce(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/path  ", "https://example.com/path"},
		{"http://example.com", "http://example.com"},
		{"HTTPS://example.com", "HTTPS://example.com"},
	}
	for _, tt := range tests {
		fake := &fakeSnapshotter{markup: "<html></html>"}
		rec := postForm(t, New(fake).Handler(), "/preview", url.Values{"url": {tt.in}})
		require.Equal(t, http.StatusOK, rec.Code, tt.in)
		assert.Equal(t, []string{tt.want}, fake.targets, tt.in)
	}
}

func TestPreview_EmptyURL(t *testing.T) {
	fake := &fakeSnapshotter{}
	h := New(fake).Handler()

	for _, form := range []url.Values{{"url": {"   "}}, {}} {
		rec := postForm(t, h, "/preview", form)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	assert.Empty(t, fake.targets)
}

func TestPreview_InvalidURL(t *testing.T) {
	fake := &fakeSnapshotter{}
	h := New(fake).Handler()

	rec := postForm(t, h, "/preview", url.Values{"url": {"https://"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid url", strings.TrimSpace(rec.Body.String()))

	rec = postForm(t, h, "/preview", url.Values{"url": {""}})
	assert.Equal(t, "url is required", strings.TrimSpace(rec.Body.String()))
	assert.Empty(t, fake.targets)
}

func TestPreview_FailureIsGeneric(t *testing.T) {
	fake := &fakeSnapshotter{err: fmt.Errorf("%w: dial tcp: connection refused", core.ErrPageFetch)}
	rec := postForm(t, New(fake).Handler(), "/preview", url.Values{"url": {"unreachable.test"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ScrapeFailed, strings.TrimSpace(rec.Body.String()))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.NotContains(t, rec.Body.String(), "refused")
}

func TestPreview_RateLimited(t *testing.T) {
	fake := &fakeSnapshotter{markup: "<html></html>"}
	h := New(fake, WithPreviewLimit(0.001, 1)).Handler()

	rec := postForm(t, h, "/preview", url.Values{"url": {"example.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postForm(t, h, "/preview", url.Values{"url": {"example.com"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Len(t, fake.targets, 1)
}

func TestDownload(t *testing.T) {
	content := "<html><body>offline ü</body></html>"
	rec := postForm(t, New(&fakeSnapshotter{}).Handler(), "/download", url.Values{"html_content": {content}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="offline_page.html"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, content, rec.Body.String())
}

func TestDownload_MissingContent(t *testing.T) {
	rec := postForm(t, New(&fakeSnapshotter{}).Handler(), "/download", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload_BodyTooLarge(t *testing.T) {
	h := New(&fakeSnapshotter{}, WithMaxFormBytes(64)).Handler()
	rec := postForm(t, h, "/download", url.Values{"html_content": {strings.Repeat("x", 1024)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(New(&fakeSnapshotter{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestPreview_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	New(&fakeSnapshotter{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSnapshotterErrorsAreLoggedNotLeaked(t *testing.T) {
	var logs strings.Builder
	fake := &fakeSnapshotter{err: errors.New("secret detail")}
	h := New(fake, WithLogger(newTestLogger(&logs))).Handler()

	rec := postForm(t, h, "/preview", url.Values{"url": {"example.com"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
	assert.Contains(t, logs.String(), "secret detail")
}

func newTestLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, nil))
}
