// Package transform executes the build plan: it bundles and minifies planned
// assets, copies static files and minifies the output HTML.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/evanw/esbuild/pkg/api"

	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/internal/logging"
	"github.com/dosanma1/crxpack/internal/usemin"
	"github.com/dosanma1/crxpack/pkg/xos"
)

// Output is one bundle written to the output root.
type Output struct {
	Dest    string
	Path    string
	Size    int
	Sources int
}

// BundleReport summarizes a bundling run.
type BundleReport struct {
	Outputs   []Output
	Revisions usemin.Revisions
}

// Bundler concatenates and minifies planned bundles.
type Bundler struct {
	srcRoot  string
	distRoot string
	revision bool
}

// NewBundler creates a bundler reading from srcRoot and writing to distRoot.
// With revision set, written names carry a content hash.
func NewBundler(srcRoot, distRoot string, revision bool) *Bundler {
	return &Bundler{srcRoot: srcRoot, distRoot: distRoot, revision: revision}
}

// Run writes every bundle in order.
func (b *Bundler) Run(ctx context.Context, bundles []usemin.Bundle) (*BundleReport, error) {
	logger := logging.FromContext(ctx)
	report := &BundleReport{Outputs: []Output{}, Revisions: usemin.Revisions{}}

	for _, bundle := range bundles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		joined, err := b.concat(bundle)
		if err != nil {
			return nil, err
		}

		code, err := minifyBundle(bundle.Type, bundle.Dest, joined)
		if err != nil {
			return nil, err
		}

		written := bundle.Dest
		if b.revision {
			written = RevisionName(bundle.Dest, code)
		}

		out := filepath.Join(b.distRoot, filepath.FromSlash(written))
		if err := xos.CreateDir(filepath.Dir(out), 0o755); err != nil {
			return nil, perrors.TransformFailed("bundle", err).WithContext("bundle", bundle.Dest)
		}
		if err := xos.WriteFile(out, code, 0o644); err != nil {
			return nil, perrors.TransformFailed("bundle", err).WithContext("bundle", bundle.Dest)
		}

		report.Revisions[bundle.Dest] = written
		report.Outputs = append(report.Outputs, Output{
			Dest:    bundle.Dest,
			Path:    written,
			Size:    len(code),
			Sources: len(bundle.Sources),
		})
		logger.Debug("Wrote bundle", "bundle", written, "sources", len(bundle.Sources), "bytes", len(code))
	}

	return report, nil
}

func (b *Bundler) concat(bundle usemin.Bundle) ([]byte, error) {
	sep := []byte("\n")
	if bundle.Type == usemin.TypeJS {
		sep = []byte(";\n")
	}

	var buf bytes.Buffer
	for i, src := range bundle.Sources {
		data, err := os.ReadFile(filepath.Join(b.srcRoot, filepath.FromSlash(src)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, perrors.MissingInput(bundle.Dest, src)
			}
			return nil, perrors.TransformFailed("bundle", err).WithContext("source", src)
		}
		if i > 0 {
			buf.Write(sep)
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

func minifyBundle(typ, dest string, code []byte) ([]byte, error) {
	opts := api.TransformOptions{
		Sourcefile:       dest,
		MinifyWhitespace: true,
		MinifySyntax:     true,
		LogLevel:         api.LogLevelSilent,
	}
	switch typ {
	case usemin.TypeJS:
		opts.Loader = api.LoaderJS
		opts.MinifyIdentifiers = true
	case usemin.TypeCSS:
		opts.Loader = api.LoaderCSS
	default:
		return nil, perrors.MinifyFailed(dest, fmt.Errorf("unknown bundle type %q", typ))
	}

	result := api.Transform(string(code), opts)
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			if e.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d: %s", e.Location.Line, e.Location.Column, e.Text))
			} else {
				msgs = append(msgs, e.Text)
			}
		}
		return nil, perrors.MinifyFailed(dest, errors.New(strings.Join(msgs, "; ")))
	}
	return result.Code, nil
}

// RevisionName inserts an 8 hex digit content hash before the extension.
func RevisionName(dest string, content []byte) string {
	hash := fmt.Sprintf("%016x", xxhash.Sum64(content))[:8]
	ext := path.Ext(dest)
	return strings.TrimSuffix(dest, ext) + "." + hash + ext
}
