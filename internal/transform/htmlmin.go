package transform

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/internal/logging"
	"github.com/dosanma1/crxpack/pkg/xos"
)

// HTMLMinifier minifies HTML documents, including inline scripts and styles.
type HTMLMinifier struct {
	m *minify.M
}

// NewHTMLMinifier creates a minifier that collapses whitespace, drops
// optional tags, default attribute values and attribute quotes, and drops
// comments other than conditional comments.
func NewHTMLMinifier() *HTMLMinifier {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{KeepSpecialComments: true})
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	return &HTMLMinifier{m: m}
}

// Minify returns the minified document.
func (h *HTMLMinifier) Minify(name string, data []byte) ([]byte, error) {
	out, err := h.m.Bytes("text/html", data)
	if err != nil {
		return nil, perrors.MinifyFailed(name, err)
	}
	return out, nil
}

// Run minifies the top-level HTML files of dir in place and returns how many
// were rewritten.
func (h *HTMLMinifier) Run(ctx context.Context, dir string) (int, error) {
	logger := logging.FromContext(ctx)

	names, err := doublestar.Glob(os.DirFS(dir), "*.html", doublestar.WithFilesOnly())
	if err != nil {
		return 0, perrors.TransformFailed("htmlmin", err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		file := filepath.Join(dir, name)
		info, err := os.Stat(file)
		if err != nil {
			return 0, perrors.TransformFailed("htmlmin", err).WithContext("file", name)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return 0, perrors.TransformFailed("htmlmin", err).WithContext("file", name)
		}

		out, err := h.Minify(name, data)
		if err != nil {
			return 0, err
		}
		if err := xos.WriteFile(file, out, info.Mode().Perm()); err != nil {
			return 0, perrors.TransformFailed("htmlmin", err).WithContext("file", name)
		}
		logger.Debug("Minified HTML", "file", name, "before", len(data), "after", len(out))
	}

	return len(names), nil
}
