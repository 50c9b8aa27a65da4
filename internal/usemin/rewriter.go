package usemin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"golang.org/x/net/html"

	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/internal/logging"
	"github.com/dosanma1/crxpack/pkg/xos"
)

// Revisions maps a logical output path to the path actually written. Both
// are relative to the output root.
type Revisions map[string]string

var cssURLPattern = regexp.MustCompile(`url\(\s*(['"]?)([^'")\s]+)(['"]?)\s*\)`)

// Rewriter replaces build blocks with single bundle references and points
// asset references at their revisioned names.
type Rewriter struct {
	revisions Revisions
}

// NewRewriter creates a rewriter. A nil map means no asset was revisioned.
func NewRewriter(revisions Revisions) *Rewriter {
	if revisions == nil {
		revisions = Revisions{}
	}
	return &Rewriter{revisions: revisions}
}

// RewriteReport lists the files whose content changed.
type RewriteReport struct {
	Files []string
}

// Run rewrites the given HTML and CSS files in place. Paths are
// slash-separated and relative to distRoot.
func (r *Rewriter) Run(ctx context.Context, distRoot string, htmlFiles, cssFiles []string) (*RewriteReport, error) {
	logger := logging.FromContext(ctx)
	report := &RewriteReport{}

	apply := func(rel string, fn func(string, []byte) ([]byte, error)) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs := filepath.Join(distRoot, filepath.FromSlash(rel))
		info, err := os.Stat(abs)
		if err != nil {
			return perrors.TransformFailed("rewrite", err).WithContext("file", rel)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return perrors.TransformFailed("rewrite", err).WithContext("file", rel)
		}
		out, err := fn(rel, data)
		if err != nil {
			return err
		}
		if bytes.Equal(out, data) {
			return nil
		}
		if err := xos.WriteFile(abs, out, info.Mode().Perm()); err != nil {
			return perrors.TransformFailed("rewrite", err).WithContext("file", rel)
		}
		logger.Debug("Rewrote references", "file", rel)
		report.Files = append(report.Files, rel)
		return nil
	}

	for _, rel := range htmlFiles {
		if err := apply(rel, r.RewriteHTML); err != nil {
			return nil, err
		}
	}
	for _, rel := range cssFiles {
		if err := apply(rel, func(rel string, data []byte) ([]byte, error) {
			return r.RewriteCSS(rel, data), nil
		}); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// RewriteHTML replaces every build block of the document at rel with one tag
// and rewrites src and href attributes that name a revisioned asset.
func (r *Rewriter) RewriteHTML(rel string, data []byte) ([]byte, error) {
	spans, err := scanBlocks(rel, data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	last := 0
	for _, s := range spans {
		buf.Write(data[last:s.start])
		buf.WriteString(r.blockTag(rel, s))
		last = s.end
	}
	buf.Write(data[last:])

	return r.rewriteAttrs(rel, buf.Bytes())
}

func (r *Rewriter) blockTag(rel string, s span) string {
	ref := r.ref(path.Dir(rel), s.dest)
	if s.typ == TypeCSS {
		return fmt.Sprintf(`<link rel="stylesheet" href="%s">`, ref)
	}
	return fmt.Sprintf(`<script src="%s"></script>`, ref)
}

// rewriteAttrs walks the token stream and patches src and href values in
// the raw bytes, leaving every other byte as it was.
func (r *Rewriter) rewriteAttrs(rel string, data []byte) ([]byte, error) {
	if len(r.revisions) == 0 {
		return data, nil
	}

	dir := path.Dir(rel)
	var buf bytes.Buffer
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return buf.Bytes(), nil
			}
			return nil, perrors.TransformFailed("rewrite", z.Err()).WithContext("file", rel)
		}

		raw := append([]byte(nil), z.Raw()...)
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			if _, hasAttr := z.TagName(); hasAttr {
				for key, val := range readAttrs(z) {
					if key != "src" && key != "href" {
						continue
					}
					if next := r.ref(dir, val); next != val {
						raw = replaceAttr(raw, key, val, next)
					}
				}
			}
		}
		buf.Write(raw)
	}
}

// replaceAttr swaps the value of the key attribute in a raw start tag.
// Values spelled with character references are left alone.
func replaceAttr(raw []byte, key, val, next string) []byte {
	pattern := regexp.MustCompile(`(?i)(\s` + regexp.QuoteMeta(key) + `\s*=\s*["']?)` + regexp.QuoteMeta(val))
	loc := pattern.FindSubmatchIndex(raw)
	if loc == nil {
		return raw
	}
	out := make([]byte, 0, len(raw)+len(next)-len(val))
	out = append(out, raw[:loc[3]]...)
	out = append(out, next...)
	out = append(out, raw[loc[1]:]...)
	return out
}

// RewriteCSS rewrites url() references of the stylesheet at rel.
func (r *Rewriter) RewriteCSS(rel string, data []byte) []byte {
	if len(r.revisions) == 0 {
		return data
	}
	dir := path.Dir(rel)
	return cssURLPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		sub := cssURLPattern.FindSubmatch(m)
		ref := string(sub[2])
		next := r.ref(dir, ref)
		if next == ref {
			return m
		}
		return []byte(fmt.Sprintf("url(%s%s%s)", sub[1], next, sub[3]))
	})
}

// ref returns the reference to use for ref as seen from dir, swapping the
// file name for its revisioned one when there is one.
func (r *Rewriter) ref(dir, ref string) string {
	clean := cleanRef(ref)
	if clean == "" || clean != ref {
		return ref
	}
	logical, ok := resolveRef(dir, ref)
	if !ok {
		return ref
	}
	written, ok := r.revisions[logical]
	if !ok || written == logical {
		return ref
	}
	return path.Join(path.Dir(ref), path.Base(written))
}
