package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_PrefersMainAndDropsInlinedAssets(t *testing.T) {
	src := `<html><head><style>body{}</style></head><body>
<nav>menu</nav>
<main><h1>Hello</h1><p>Body text</p><script>alert(1)</script></main>
<footer>foot</footer></body></html>`

	got, err := New().Extract(src)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "<main>"))
	assert.Contains(t, got, "<h1>Hello</h1>")
	assert.Contains(t, got, "Body text")
	assert.NotContains(t, got, "alert(1)")
	assert.NotContains(t, got, "menu")
	assert.NotContains(t, got, "foot")
}

func TestExtract_FallsBackToBody(t *testing.T) {
	got, err := New().Extract(`<p>just text</p>`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "<body>"))
	assert.Contains(t, got, "just text")
}

func TestExtract_PicksLargestArticle(t *testing.T) {
	src := `<body><article><p>short</p></article>
<article><p>the much longer story body</p><style>p{color:red;}</style></article></body>`

	got, err := New().Extract(src)
	require.NoError(t, err)
	assert.Contains(t, got, "the much longer story body")
	assert.NotContains(t, got, "short")
	assert.NotContains(t, got, "color:red")
}

func TestExtract_InlinedAssetsDoNotWinContainer(t *testing.T) {
	// The empty <main> only holds a big inlined script; body text should win.
	src := `<body><main><script>` + strings.Repeat("var x = 1;", 50) + `</script></main><p>real text</p></body>`

	got, err := New().Extract(src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "<body>"))
	assert.Contains(t, got, "real text")
	assert.NotContains(t, got, "var x")
}

func TestMetadata(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html lang="nl"><head><title>  Offline page </title></head><body></body></html>`))
	require.NoError(t, err)

	meta := Metadata(doc, "https://example.com/docs/intro")

	assert.Equal(t, "Offline page", meta.Title)
	assert.Equal(t, "nl", meta.Language)
	assert.Equal(t, "example.com", meta.Domain)
	assert.Equal(t, "/docs/intro", meta.Path)
	assert.NotEmpty(t, meta.FetchedAt)
}

func TestMetadata_DefaultLanguage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<p>x</p>`))
	require.NoError(t, err)
	assert.Equal(t, "en", Metadata(doc, "https://example.com").Language)
}
