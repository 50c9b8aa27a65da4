package usemin

import (
	"bytes"
	"regexp"
	"strings"

	perrors "github.com/dosanma1/crxpack/internal/errors"
)

// Block types.
const (
	TypeJS  = "js"
	TypeCSS = "css"
)

var (
	markerPattern = regexp.MustCompile(`<!--\s*(build:[^>]*?|endbuild)\s*-->`)
	startPattern  = regexp.MustCompile(`^build:([A-Za-z0-9_-]*)(?:\(([^)]*)\))?(?:\s+(\S+))?$`)
)

// span is one marker pair located in an HTML document.
type span struct {
	typ, alt, dest string

	start, end         int // byte offsets of the whole block, markers included
	bodyStart, bodyEnd int // byte offsets of the content between the markers
	startLine, endLine int
}

// scanBlocks locates every build block in data. file is only used in errors.
func scanBlocks(file string, data []byte) ([]span, error) {
	var (
		spans []span
		open  *span
	)

	for _, loc := range markerPattern.FindAllSubmatchIndex(data, -1) {
		marker := strings.TrimSpace(string(data[loc[2]:loc[3]]))
		line := lineAt(data, loc[0])

		if marker == "endbuild" {
			if open == nil {
				return nil, perrors.UnmatchedMarker(file, line, "endbuild")
			}
			open.bodyEnd = loc[0]
			open.end = loc[1]
			open.endLine = line
			spans = append(spans, *open)
			open = nil
			continue
		}

		if open != nil {
			return nil, perrors.PlanInvalid(file, line, "nested build marker").
				WithContext("open_line", open.startLine)
		}

		m := startPattern.FindStringSubmatch(marker)
		if m == nil {
			return nil, perrors.PlanInvalid(file, line, "malformed build marker").
				WithContext("marker", marker)
		}
		typ, alt, dest := m[1], strings.TrimSpace(m[2]), m[3]
		if typ != TypeJS && typ != TypeCSS {
			return nil, perrors.PlanInvalid(file, line, "unknown block type").
				WithContext("type", typ)
		}
		if dest == "" {
			return nil, perrors.PlanInvalid(file, line, "build block has no destination")
		}

		open = &span{
			typ:       typ,
			alt:       alt,
			dest:      dest,
			start:     loc[0],
			bodyStart: loc[1],
			startLine: line,
		}
	}

	if open != nil {
		return nil, perrors.UnmatchedMarker(file, open.startLine, "build:"+open.typ)
	}
	return spans, nil
}

func lineAt(data []byte, offset int) int {
	return bytes.Count(data[:offset], []byte{'\n'}) + 1
}
