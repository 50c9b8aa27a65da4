//go:build windows
// +build windows

// Package xos provides atomic file operations. On Windows the temp file is
// created in the target directory and then renamed over the target.
package xos

import (
	"io"
	"os"
	"path/filepath"
)

// WriteFile writes data to the named file through a temp file in the same directory.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	p, err := NewPendingFile(filename)
	if err != nil {
		return err
	}
	defer p.Cleanup()

	if _, err := p.Write(data); err != nil {
		return err
	}
	if err := p.Chmod(perm); err != nil {
		return err
	}
	return p.CloseAtomically()
}

// CreateDir creates a directory and all necessary parents.
func CreateDir(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// PendingFile represents a file that will be written atomically.
type PendingFile struct {
	tempFile *os.File
	tempName string
	path     string
	perm     os.FileMode
	done     bool
}

// NewPendingFile creates a new pending file for atomic writing.
func NewPendingFile(filename string) (*PendingFile, error) {
	dir := filepath.Dir(filename)
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, err
	}
	return &PendingFile{
		tempFile: tempFile,
		tempName: tempFile.Name(),
		path:     filename,
		perm:     0644,
	}, nil
}

// Write writes data to the pending file.
func (p *PendingFile) Write(data []byte) (int, error) {
	return p.tempFile.Write(data)
}

// Chmod records the file mode applied on close.
func (p *PendingFile) Chmod(perm os.FileMode) error {
	p.perm = perm
	return nil
}

// CloseAtomically completes the write by renaming the temp file over the target.
func (p *PendingFile) CloseAtomically() error {
	if err := p.tempFile.Sync(); err != nil {
		return err
	}
	if err := p.tempFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(p.tempName, p.perm); err != nil {
		return err
	}

	// Remove target if exists
	if _, err := os.Stat(p.path); err == nil {
		if err := os.Remove(p.path); err != nil {
			return err
		}
	}

	if err := os.Rename(p.tempName, p.path); err != nil {
		return err
	}
	p.done = true
	return nil
}

// Cleanup discards the pending file. It is a no-op after CloseAtomically.
func (p *PendingFile) Cleanup() {
	if p.done {
		return
	}
	p.tempFile.Close()
	os.Remove(p.tempName)
}

// Path returns the target path of the pending file.
func (p *PendingFile) Path() string {
	return p.path
}

// CopyFile streams src into dst and gives dst mode perm.
func CopyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := NewPendingFile(dst)
	if err != nil {
		return err
	}
	defer out.Cleanup()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Chmod(perm); err != nil {
		return err
	}
	return out.CloseAtomically()
}
