package transform

import (
	"context"
	"os"
	"path/filepath"

	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/internal/logging"
	"github.com/dosanma1/crxpack/pkg/xos"
)

// Copier copies static files from the source root to the output root.
type Copier struct {
	srcRoot  string
	distRoot string
}

// NewCopier creates a copier.
func NewCopier(srcRoot, distRoot string) *Copier {
	return &Copier{srcRoot: srcRoot, distRoot: distRoot}
}

// Run copies files, given slash-separated relative to the source root,
// keeping their relative paths and permission bits. It returns the number of
// files copied.
func (c *Copier) Run(ctx context.Context, files []string) (int, error) {
	logger := logging.FromContext(ctx)

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		src := filepath.Join(c.srcRoot, filepath.FromSlash(rel))
		dst := filepath.Join(c.distRoot, filepath.FromSlash(rel))

		info, err := os.Stat(src)
		if err != nil {
			return 0, perrors.TransformFailed("copy", err).WithContext("file", rel)
		}
		if err := xos.CreateDir(filepath.Dir(dst), 0o755); err != nil {
			return 0, perrors.TransformFailed("copy", err).WithContext("file", rel)
		}
		if err := xos.CopyFile(src, dst, info.Mode().Perm()); err != nil {
			return 0, perrors.TransformFailed("copy", err).WithContext("file", rel)
		}
		logger.Debug("Copied file", "file", rel)
	}

	return len(files), nil
}
