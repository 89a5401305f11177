package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvDir, root)

	got, err := Filename("", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, DefaultConfigFile), got)

	other := t.TempDir()
	got, err = Filename(other, "client.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(other, "client.json"), got)

	abs := filepath.Join(other, "nested", "client.json")
	got, err = Filename(root, abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)
}

func TestClone(t *testing.T) {
	c := Init()
	c.API.Address = "http://127.0.0.1:5001"
	c.API.HTTPHeaders["X-Test"] = []string{"a"}

	c2, err := c.Clone()
	require.NoError(t, err)
	require.Equal(t, c.API.Address, c2.API.Address)

	c2.API.HTTPHeaders["X-Test"][0] = "b"
	assert.Equal(t, "a", c.API.HTTPHeaders["X-Test"][0], "clone must not share header slices")
	assert.Equal(t, DefaultAPITimeout, c2.API.Timeout.WithDefault(time.Second))
}

func TestHumanOutput(t *testing.T) {
	out, err := HumanOutput("http://127.0.0.1:5001\n")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:5001", string(out))

	out, err = HumanOutput(API{Address: "/ip4/127.0.0.1/tcp/5001"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Address": "/ip4/127.0.0.1/tcp/5001"`)
}
