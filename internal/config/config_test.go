package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/dosanma1/crxpack/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default(t.TempDir())
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "caturday", cfg.Product)
	assert.Equal(t, filepath.Join(cfg.BaseDir, "app"), cfg.AppDir())
	assert.Equal(t, filepath.Join(cfg.BaseDir, "dist"), cfg.DistDir())
	assert.Equal(t, filepath.Join(cfg.BaseDir, "app", "manifest.json"), cfg.ManifestPath())
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "product: kitten-tab\npaths:\n  dist: build\nrevision: true\nwatch:\n  debounce: 250ms\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "kitten-tab", cfg.Product)
	assert.Equal(t, "app", cfg.Paths.App)
	assert.Equal(t, "build", cfg.Paths.Dist)
	assert.True(t, cfg.Revision)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []string{"popup.html"}, cfg.Plan.HTML)
	assert.Equal(t, path, cfg.File)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty product", "product: \"\"\n"},
		{"product not kebab", "product: Caturday\n"},
		{"dist equals app", "paths:\n  dist: app\n"},
		{"bad glob", "sources:\n  scripts: [\"scripts/[*.js\"]\n"},
		{"bad keep pattern", "clean:\n  keep: [\"[\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, perrors.IsCategory(err, perrors.CategoryConfig))
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "product: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, perrors.IsCategory(err, perrors.CategoryConfig))
}

func TestResolveWalksUpToConfig(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "product: found-it\n")
	nested := filepath.Join(root, "app", "scripts")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Resolve("", nested)
	require.NoError(t, err)
	assert.Equal(t, "found-it", cfg.Product)
	assert.Equal(t, root, cfg.BaseDir)
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Resolve("", dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.File)
	assert.Equal(t, "caturday", cfg.Product)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg := Default(dir)
	cfg.Product = "kitten-tab"
	cfg.Watch.Debounce = 300 * time.Millisecond
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "kitten-tab", loaded.Product)
	assert.Equal(t, 300*time.Millisecond, loaded.Watch.Debounce)
	assert.Equal(t, cfg.Sources, loaded.Sources)
	assert.Equal(t, path, loaded.File)
}
