package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_DefaultName(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	path, err := w.Write("", []byte("<html></html>"), ".html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "offline_page.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w, err := New(dir)
	require.NoError(t, err)

	path, err := w.Write("page", []byte("x"), ".md")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestNameFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com", "example_com"},
		{"https://example.com/docs/intro/", "example_com_docs_intro"},
		{"http://localhost:8080/a-b", "localhost_8080_a_b"},
		{"not a url", "not_a_url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NameFromURL(tt.in), tt.in)
	}
}
