package archive

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/dosanma1/crxpack/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	out := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, zip.Deflate, f.Method, f.Name)
		out[f.Name] = string(data)
	}
	return out
}

func TestArtifactName(t *testing.T) {
	name, err := ArtifactName("caturday", "0.0.4")
	require.NoError(t, err)
	assert.Equal(t, "caturday-0.0.4.zip", name)

	for _, version := range []string{"", "1.0-beta", "1..2"} {
		_, err := ArtifactName("caturday", version)
		require.Error(t, err, version)
		assert.True(t, perrors.IsCategory(err, perrors.CategoryPackaging))
	}

	_, err = ArtifactName("", "1.0")
	assert.True(t, perrors.IsCategory(err, perrors.CategoryPackaging))
}

func TestCreateZipsNonDotFiles(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "manifest.json", `{"version":"1.0"}`)
	writeFile(t, src, "scripts/popup.js", "console.log(1)")
	writeFile(t, src, ".gitkeep", "")
	writeFile(t, src, ".git/HEAD", "ref")

	dest := filepath.Join(t.TempDir(), "package", "caturday-1.0.zip")
	var progress bytes.Buffer
	artifact, err := NewArchiver(&progress).Create(context.Background(), src, dest)
	require.NoError(t, err)

	assert.Equal(t, dest, artifact.Path)
	assert.Equal(t, 2, artifact.Files)
	assert.Positive(t, artifact.Size)

	assert.Equal(t, map[string]string{
		"manifest.json":    `{"version":"1.0"}`,
		"scripts/popup.js": "console.log(1)",
	}, readZip(t, dest))
}

func TestCreateReplacesExistingArtifact(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.txt", "new")

	dest := filepath.Join(t.TempDir(), "caturday-1.0.zip")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o644))

	_, err := NewArchiver(nil).Create(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.txt": "new"}, readZip(t, dest))
}

func TestCreateFailureLeavesNoArtifact(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "caturday-1.0.zip")

	_, err := NewArchiver(nil).Create(context.Background(), filepath.Join(t.TempDir(), "missing"), dest)
	require.Error(t, err)
	assert.True(t, perrors.IsCategory(err, perrors.CategoryPackaging))
	assert.NoFileExists(t, dest)
}

func TestCreateCanceled(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.txt", "a")
	dest := filepath.Join(t.TempDir(), "caturday-1.0.zip")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewArchiver(nil).Create(ctx, src, dest)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, dest)

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
