// Package archive zips the output root into the release artifact.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/schollz/progressbar/v3"

	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/internal/logging"
	"github.com/dosanma1/crxpack/internal/manifest"
	"github.com/dosanma1/crxpack/pkg/xos"
)

// Artifact is a written archive.
type Artifact struct {
	Path  string
	Files int
	Size  int64
}

// ArtifactName returns "<product>-<version>.zip".
func ArtifactName(product, version string) (string, error) {
	if product == "" {
		return "", perrors.New(perrors.CategoryPackaging, "cannot name artifact without a product name")
	}
	if _, err := manifest.ParseVersion(version); err != nil {
		return "", perrors.ArtifactNameInvalid(version)
	}
	return fmt.Sprintf("%s-%s.zip", product, version), nil
}

// Archiver writes zip archives.
type Archiver struct {
	progress io.Writer
}

// NewArchiver creates an archiver. A nil progress writer disables the
// progress bar.
func NewArchiver(progress io.Writer) *Archiver {
	return &Archiver{progress: progress}
}

// Create zips every file under srcDir whose path has no dot-prefixed
// element and atomically replaces dest with the result.
func (a *Archiver) Create(ctx context.Context, srcDir, dest string) (*Artifact, error) {
	logger := logging.FromContext(ctx)

	files, err := collect(srcDir)
	if err != nil {
		return nil, perrors.PackagingFailed("collect", err).WithContext("dir", srcDir)
	}

	if err := xos.CreateDir(filepath.Dir(dest), 0o755); err != nil {
		return nil, perrors.PackagingFailed("create", err).WithContext("path", dest)
	}

	pending, err := xos.NewPendingFile(dest)
	if err != nil {
		return nil, perrors.PackagingFailed("create", err).WithContext("path", dest)
	}
	defer pending.Cleanup()

	bar := a.newBar(len(files))
	zw := zip.NewWriter(pending)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := addFile(zw, srcDir, rel); err != nil {
			return nil, perrors.PackagingFailed("write", err).WithContext("file", rel)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, perrors.PackagingFailed("write", err).WithContext("path", dest)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if err := pending.Chmod(0o644); err != nil {
		return nil, perrors.PackagingFailed("write", err).WithContext("path", dest)
	}
	if err := pending.CloseAtomically(); err != nil {
		return nil, perrors.PackagingFailed("write", err).WithContext("path", dest)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return nil, perrors.PackagingFailed("stat", err).WithContext("path", dest)
	}

	logger.Debug("Wrote archive", "path", dest, "files", len(files), "bytes", info.Size())
	return &Artifact{Path: dest, Files: len(files), Size: info.Size()}, nil
}

func (a *Archiver) newBar(total int) *progressbar.ProgressBar {
	if a.progress == nil {
		return nil
	}
	w := a.progress
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Packaging"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}

// collect returns the slash-separated files of dir in lexical order.
func collect(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

func addFile(zw *zip.Writer, dir, rel string) error {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = rel
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
