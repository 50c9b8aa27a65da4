// Package lint is the static analysis gate. It checks extension scripts for
// syntax errors, undeclared identifiers and leftover debugger statements, and
// checks the pipeline config for unknown keys.
package lint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Linter runs the rule set over a list of files.
type Linter struct {
	rules      []Rule
	configRule ConfigRule
}

// NewLinter creates a linter. Globals extends the set of known global names.
func NewLinter(globals []string) *Linter {
	return &Linter{
		rules: []Rule{
			SyntaxRule{},
			NewUndefRule(globals),
			DebuggerRule{},
		},
	}
}

// LintFiles lints every file. Scripts (.js) go through the script rules and
// YAML files through the config rule. Paths in the result are relative to
// base when possible.
func (l *Linter) LintFiles(ctx context.Context, base string, files []string) (*Result, error) {
	result := &Result{Issues: []Issue{}}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}

		display := displayPath(base, file)
		switch strings.ToLower(filepath.Ext(file)) {
		case ".js", ".mjs":
			src := parseSource(display, data)
			for _, rule := range l.rules {
				result.Issues = append(result.Issues, rule.Check(src)...)
			}
		case ".yaml", ".yml":
			result.Issues = append(result.Issues, l.configRule.CheckFile(display, data)...)
		default:
			continue
		}
		result.FilesTotal++
	}

	result.sortIssues()
	return result, nil
}

func displayPath(base, file string) string {
	if base == "" {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(base, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}
