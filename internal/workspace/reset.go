// Package workspace manages the output root between runs.
package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/internal/logging"
)

// ResetReport lists what a reset removed and kept. Names are top-level
// entries of the root.
type ResetReport struct {
	Removed []string
	Kept    []string
}

// Reset deletes every top-level entry of root whose name matches none of
// the keep patterns. A missing root is not an error.
func Reset(ctx context.Context, root string, keep []string) (*ResetReport, error) {
	logger := logging.FromContext(ctx)
	report := &ResetReport{Removed: []string{}, Kept: []string{}}

	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, nil
		}
		return nil, perrors.ResetFailed(root, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		kept, err := matchesAny(name, keep)
		if err != nil {
			return nil, perrors.BadPattern(name, err).WithContext("field", "clean.keep")
		}
		if kept {
			report.Kept = append(report.Kept, name)
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(root, name)
		if err := os.RemoveAll(path); err != nil {
			return nil, perrors.ResetFailed(path, err)
		}
		logger.Debug("Removed", "path", path)
		report.Removed = append(report.Removed, name)
	}

	sort.Strings(report.Removed)
	sort.Strings(report.Kept)
	return report, nil
}

func matchesAny(name string, patterns []string) (bool, error) {
	for _, p := range patterns {
		ok, err := filepath.Match(p, name)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
