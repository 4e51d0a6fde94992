package project

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "project.yaml", `
apps:
  - name: site
    entry: src/main.js
libs:
  - name: ui-kit
    lib:
      format: esm
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Apps, 1)
	require.Len(t, cfg.Libs, 1)
	assert.Equal(t, "site", cfg.Apps[0].Name)
	assert.Equal(t, StringList{"src/main.js"}, cfg.Apps[0].Entry)
	require.NotNil(t, cfg.Libs[0].Lib)
	assert.Equal(t, "esm", cfg.Libs[0].Lib.Format)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "project.json", `{
		"defaults": {"outDir": "build"},
		"apps": [{"name": "site", "assets": ["static"]}]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Defaults)
	assert.Equal(t, "build", cfg.Defaults.OutDir)
	require.Len(t, cfg.Apps, 1)
	assert.Equal(t, "static", cfg.Apps[0].Assets[0].From)
}

func TestLoadJSONC(t *testing.T) {
	path := writeConfig(t, "project.jsonc", `{
		// the storefront
		"apps": [
			{"name": "site"}, // trailing comma next line is fine too
		],
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Apps, 1)
	assert.Equal(t, "site", cfg.Apps[0].Name)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("  ")
	require.Error(t, err)
	assert.True(t, rigerr.IsOption(err))
}

func TestLoadUnknownExtension(t *testing.T) {
	path := writeConfig(t, "project.toml", "apps = []")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, rigerr.IsOption(err))
	assert.Contains(t, err.Error(), ".toml")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, rigerr.IsOption(err))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "broken.yaml", "apps:\n  - name: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, rigerr.IsConfig(err))
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeConfig(t, "broken.json", `{"apps": [}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, rigerr.IsConfig(err))
}
