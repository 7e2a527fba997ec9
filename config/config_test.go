package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, ":5000", c.Server.Addr)
	assert.Equal(t, int64(32<<20), c.Server.MaxFormBytes)

	a := c.Assembler()
	assert.Equal(t, 10*time.Second, a.PageTimeout)
	assert.Equal(t, 5*time.Second, a.ResourceTimeout)
	assert.Equal(t, 20, a.MaxResources)
	assert.False(t, a.InlineFonts)
	assert.True(t, a.Pretty)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagesnap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":8080"
  preview_rate: 2
snapshot:
  max_resources: 5
  resource_timeout: 2s
  inline_fonts: true
  pretty: false
log:
  format: json
`), 0644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 2.0, c.Server.PreviewRate)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, "info", c.Log.Level)

	a := c.Assembler()
	assert.Equal(t, 5, a.MaxResources)
	assert.Equal(t, 2*time.Second, a.ResourceTimeout)
	assert.Equal(t, 10*time.Second, a.PageTimeout)
	assert.True(t, a.InlineFonts)
	assert.False(t, a.Pretty)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                   "9000",
		"PAGESNAP_LOG_LEVEL":     "debug",
		"PAGESNAP_MAX_RESOURCES": "7",
	}
	c := Default()
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 7, c.Snapshot.MaxResources)

	env["PAGESNAP_ADDR"] = "127.0.0.1:7000"
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, "127.0.0.1:7000", c.Server.Addr)

	env["PAGESNAP_MAX_RESOURCES"] = "many"
	assert.Error(t, c.ApplyEnv(func(k string) string { return env[k] }))
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Snapshot.MaxResources = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.Log.Format = "xml"
	assert.Error(t, c.Validate())

	c = Default()
	c.Log.Level = "loud"
	assert.Error(t, c.Validate())
}
