// Package usemin turns HTML build blocks into a build plan and rewrites
// output files so they reference the bundles the plan produced.
package usemin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/html"

	perrors "github.com/dosanma1/crxpack/internal/errors"
)

// Block is one well-formed build block.
type Block struct {
	// File is the HTML file, relative to the source root.
	File string
	Type string
	// Dest is the bundle path relative to the output root.
	Dest string
	// Ref is the destination exactly as written in the marker.
	Ref string
	Alt string
	// Sources are relative to the source root, in document order.
	Sources   []string
	StartLine int
	EndLine   int
}

// Bundle is a distinct destination with its ordered inputs.
type Bundle struct {
	Type    string
	Dest    string
	Sources []string
}

// Plan is the ordered list of blocks found in the planned HTML files.
type Plan struct {
	Blocks []Block
}

// Bundles returns one entry per distinct destination, in first-seen order.
func (p *Plan) Bundles() []Bundle {
	seen := make(map[string]bool)
	var out []Bundle
	for _, b := range p.Blocks {
		if seen[b.Dest] {
			continue
		}
		seen[b.Dest] = true
		out = append(out, Bundle{Type: b.Type, Dest: b.Dest, Sources: b.Sources})
	}
	return out
}

// Sources returns every source file consumed by the plan.
func (p *Plan) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range p.Blocks {
		for _, s := range b.Sources {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Prepare reads each HTML file (slash-separated, relative to srcRoot) and
// builds the plan.
func Prepare(srcRoot string, htmlFiles []string) (*Plan, error) {
	plan := &Plan{Blocks: []Block{}}
	dests := make(map[string]Block)

	for _, file := range htmlFiles {
		data, err := os.ReadFile(filepath.Join(srcRoot, filepath.FromSlash(file)))
		if err != nil {
			return nil, perrors.Wrap(err, perrors.CategoryConfig, "failed to read planned HTML file").
				WithContext("file", file)
		}

		blocks, err := ParseBlocks(file, data)
		if err != nil {
			return nil, err
		}

		for _, b := range blocks {
			if prev, ok := dests[b.Dest]; ok && !slices.Equal(prev.Sources, b.Sources) {
				return nil, perrors.PlanInvalid(b.File, b.StartLine, "destination planned with different sources").
					WithContext("dest", b.Dest).
					WithContext("first", fmt.Sprintf("%s:%d", prev.File, prev.StartLine))
			}
			dests[b.Dest] = b
			plan.Blocks = append(plan.Blocks, b)
		}
	}

	return plan, nil
}

// ParseBlocks extracts the build blocks of one HTML document. file is the
// document's path relative to the source root.
func ParseBlocks(file string, data []byte) ([]Block, error) {
	spans, err := scanBlocks(file, data)
	if err != nil {
		return nil, err
	}

	dir := path.Dir(file)
	blocks := make([]Block, 0, len(spans))
	for _, s := range spans {
		dest, ok := resolveRef(dir, s.dest)
		if !ok {
			return nil, perrors.PlanInvalid(file, s.startLine, "destination escapes the output root").
				WithContext("dest", s.dest)
		}

		base := dir
		if s.alt != "" {
			base = path.Clean(strings.TrimPrefix(filepath.ToSlash(s.alt), "/"))
		}

		refs, err := extractRefs(s.typ, data[s.bodyStart:s.bodyEnd])
		if err != nil {
			return nil, perrors.PlanInvalid(file, s.startLine, "failed to parse build block").
				WithContext("cause", err.Error())
		}

		sources := make([]string, 0, len(refs))
		for _, ref := range refs {
			src, ok := resolveRef(base, ref)
			if !ok {
				return nil, perrors.PlanInvalid(file, s.startLine, "reference escapes the source root").
					WithContext("ref", ref)
			}
			sources = append(sources, src)
		}

		blocks = append(blocks, Block{
			File:      file,
			Type:      s.typ,
			Dest:      dest,
			Ref:       s.dest,
			Alt:       s.alt,
			Sources:   sources,
			StartLine: s.startLine,
			EndLine:   s.endLine,
		})
	}
	return blocks, nil
}

// extractRefs returns the script srcs or stylesheet hrefs of a block body in
// document order.
func extractRefs(typ string, body []byte) ([]string, error) {
	var refs []string
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return refs, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr {
				continue
			}
			attrs := readAttrs(z)
			switch {
			case typ == TypeJS && string(name) == "script":
				if ref := cleanRef(attrs["src"]); ref != "" {
					refs = append(refs, ref)
				}
			case typ == TypeCSS && string(name) == "link" && isStylesheet(attrs["rel"]):
				if ref := cleanRef(attrs["href"]); ref != "" {
					refs = append(refs, ref)
				}
			}
		}
	}
}

func readAttrs(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		attrs[string(key)] = string(val)
		if !more {
			return attrs
		}
	}
}

func isStylesheet(rel string) bool {
	for _, f := range strings.Fields(strings.ToLower(rel)) {
		if f == "stylesheet" {
			return true
		}
	}
	return false
}

// cleanRef drops query and fragment. Remote and inline references come back
// empty.
func cleanRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || isExternal(ref) {
		return ""
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return ref
}

func isExternal(ref string) bool {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "//") || strings.HasPrefix(lower, "data:") {
		return true
	}
	if i := strings.Index(lower, ":"); i > 0 {
		scheme := lower[:i]
		return !strings.ContainsAny(scheme, "/.")
	}
	return false
}

// resolveRef resolves ref against dir. Root-relative refs ignore dir. The
// result is false when the path leaves the root.
func resolveRef(dir, ref string) (string, bool) {
	var p string
	if strings.HasPrefix(ref, "/") {
		p = path.Clean(strings.TrimLeft(ref, "/"))
	} else {
		p = path.Join(dir, ref)
	}
	if p == ".." || strings.HasPrefix(p, "../") || p == "." {
		return "", false
	}
	return p, true
}
