package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the test away from the real home directory and environment.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"API_BASE", "GENEPANEL_API_BASE", "GENEPANEL_API_BASE_URL", "GENEPANEL_SERVER_ADDR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func TestDefaults(t *testing.T) {
	isolate(t)

	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
}

func TestConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://genes.example.org
server:
  session_cap: 5
heatmap:
  colormap: plasma
  cell_width: 0
`), 0644))

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://genes.example.org", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Server.SessionCap)
	assert.Equal(t, "plasma", cfg.Heatmap.Colormap)
	assert.Equal(t, 56, cfg.Heatmap.CellWidth)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
}

func TestUnknownColormap(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("heatmap:\n  colormap: rainbow\n"), 0644))

	v, err := NewViper(path)
	require.NoError(t, err)
	_, err = Load(v)
	assert.ErrorContains(t, err, "rainbow")

	v.Set("heatmap.colormap", "magma")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "magma", cfg.Heatmap.Colormap)
}

func TestHomeConfigFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".genepanel.yaml"), []byte("log:\n  level: debug\n"), 0644))

	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("API_BASE", "http://fallback:9000")
	t.Setenv("GENEPANEL_SERVER_ADDR", "127.0.0.1:9999")

	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://fallback:9000", cfg.API.BaseURL)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)

	// The prefixed name wins over the bare one.
	t.Setenv("GENEPANEL_API_BASE", "http://prefixed:9000")
	v, err = NewViper("")
	require.NoError(t, err)
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://prefixed:9000", cfg.API.BaseURL)
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("API_BASE=http://from-dotenv:8000\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("API_BASE") })

	loaded, err := LoadDotEnv(filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, err)
	assert.Equal(t, []string{envFile}, loaded)

	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://from-dotenv:8000", cfg.API.BaseURL)
}
