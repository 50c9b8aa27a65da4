package xos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, WriteFile(path, []byte("one"), 0o644))
	require.NoError(t, WriteFile(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestPendingFileCleanupLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caturday-1.0.0.zip")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	p, err := NewPendingFile(path)
	require.NoError(t, err)
	_, err = p.Write([]byte("half written"))
	require.NoError(t, err)
	p.Cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestCopyFileKeepsContentAndMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "icon.png")
	dst := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(src, []byte{0x89, 'P', 'N', 'G'}, 0o600))

	require.NoError(t, CopyFile(src, dst, 0o640))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}
