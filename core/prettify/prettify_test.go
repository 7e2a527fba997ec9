package prettify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestString_IndentsElements(t *testing.T) {
	doc := parse(t, `<!DOCTYPE html><html><head><title>T</title></head><body><div><p>Hello   <b>world</b></p></div></body></html>`)

	got, err := String(doc)
	require.NoError(t, err)

	want := `<!DOCTYPE html>
<html>
  <head>
    <title>
      T
    </title>
  </head>
  <body>
    <div>
      <p>
        Hello
        <b>
          world
        </b>
      </p>
    </div>
  </body>
</html>
`
	assert.Equal(t, want, got)
}

func TestString_KeepsRawTextVerbatim(t *testing.T) {
	js := "if (a < b && c > d) {\n    console.log(\"x\");\n}"
	css := "a > b { color: red; }\n  p{}"
	doc := parse(t, `<html><head><style>`+css+`</style></head><body><script>`+js+`</script><pre>  keep
   this</pre></body></html>`)

	got, err := String(doc)
	require.NoError(t, err)

	assert.Contains(t, got, "<script>"+js+"</script>")
	assert.Contains(t, got, "<style>"+css+"</style>")
	assert.Contains(t, got, "<pre>  keep\n   this</pre>")
}

func TestString_VoidElementsAndAttributes(t *testing.T) {
	doc := parse(t, `<html><head><meta charset="utf-8"><link rel="stylesheet" href="a.css?x=1&amp;y=2"></head><body><img alt='say "hi"' src=x.png><br></body></html>`)

	got, err := String(doc)
	require.NoError(t, err)

	assert.Contains(t, got, `<meta charset="utf-8">`+"\n")
	assert.Contains(t, got, `<link rel="stylesheet" href="a.css?x=1&amp;y=2">`+"\n")
	assert.Contains(t, got, `<img alt="say &quot;hi&quot;" src="x.png">`+"\n")
	assert.NotContains(t, got, "</br>")
	assert.NotContains(t, got, "</img>")
	assert.NotContains(t, got, "</link>")
}

func TestString_EscapesText(t *testing.T) {
	doc := parse(t, `<p>1 &lt; 2 &amp; 3</p><!-- note -->`)

	got, err := String(doc)
	require.NoError(t, err)

	assert.Contains(t, got, "1 &lt; 2 &amp; 3")
	assert.Contains(t, got, "<!-- note -->")
}

func TestString_ReparsesToSameText(t *testing.T) {
	src := `<html><body><h1>Title</h1><ul><li>one</li><li>two</li></ul></body></html>`
	got, err := String(parse(t, src))
	require.NoError(t, err)

	again := parse(t, got)
	var texts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			texts = append(texts, strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(again)
	assert.Equal(t, []string{"Title", "one", "two"}, texts)
}
