package lint

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/dosanma1/crxpack/pkg/xos"
)

// Format writes a stylish report: issues grouped by file, then a summary.
func Format(w io.Writer, result *Result) error {
	var current string
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, issue := range result.Issues {
		if issue.File != current {
			if current != "" {
				if err := tw.Flush(); err != nil {
					return err
				}
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			current = issue.File
			if _, err := fmt.Fprintln(w, issue.File); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(tw, "  line %d\tcol %d\t%s\t(%s)\n", issue.Line, issue.Column, issue.Message, issue.Rule); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(result.Issues) == 0 {
		_, err := fmt.Fprintf(w, "✔ No problems (%d file%s)\n", result.FilesTotal, pluralize(result.FilesTotal))
		return err
	}
	_, err := fmt.Fprintf(w, "\n✖ %d problem%s (%d error%s, %d warning%s) in %d file%s\n",
		len(result.Issues), pluralize(len(result.Issues)),
		result.ErrorCount(), pluralize(result.ErrorCount()),
		result.WarningCount(), pluralize(result.WarningCount()),
		result.FilesTotal, pluralize(result.FilesTotal))
	return err
}

// WriteReport formats result and writes it atomically to path.
func WriteReport(path string, result *Result) error {
	var buf bytes.Buffer
	if err := Format(&buf, result); err != nil {
		return err
	}
	if err := xos.CreateDir(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return xos.WriteFile(path, buf.Bytes(), 0o644)
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
