package lint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func lint(t *testing.T, dir string, globals []string, files ...string) *Result {
	t.Helper()
	result, err := NewLinter(globals).LintFiles(context.Background(), dir, files)
	require.NoError(t, err)
	return result
}

func TestCleanScriptPasses(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/popup.js", `(function () {
  'use strict';
  var count = 0;
  function render(el) {
    el.textContent = String(count);
  }
  document.addEventListener('DOMContentLoaded', function () {
    var el = document.getElementById('cats');
    chrome.storage.local.get('count', function (items) {
      count = items.count || 0;
      render(el);
    });
  });
})();
`)

	result := lint(t, dir, nil, file)
	assert.False(t, result.Failed(), "issues: %+v", result.Issues)
	assert.Equal(t, 1, result.FilesTotal)
}

func TestUndeclaredVariableIsReported(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/popup.js", "var a = 1;\n\nfunction f() {\n  return a + kitten;\n}\nf();\n")

	result := lint(t, dir, nil, file)
	require.Len(t, result.Issues, 1)

	issue := result.Issues[0]
	assert.Equal(t, "scripts/popup.js", issue.File)
	assert.Equal(t, "undef", issue.Rule)
	assert.Equal(t, 4, issue.Line)
	assert.Equal(t, 14, issue.Column)
	assert.Contains(t, issue.Message, "'kitten' is not defined")
}

func TestTypeofOperandIsNotReported(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/env.js", "var hasModule = typeof module !== 'undefined';\nhasModule;\n")

	result := lint(t, dir, nil, file)
	assert.False(t, result.Failed(), "issues: %+v", result.Issues)
}

func TestTypeofGuardDoesNotHideLaterUse(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/env.js", "if (typeof kitten === 'function') {\n  kitten();\n}\n")

	result := lint(t, dir, nil, file)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "undef", result.Issues[0].Rule)
	assert.Equal(t, 2, result.Issues[0].Line)
	assert.Equal(t, 3, result.Issues[0].Column)
}

func TestPositionsAfterRegExpLiteral(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/quote.js", "var re = /\"'/g;\nfunction f() {\n  return re.test(kitten);\n}\nf();\n")

	result := lint(t, dir, nil, file)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 3, result.Issues[0].Line)
	assert.Equal(t, 18, result.Issues[0].Column)
}

func TestConfiguredGlobalsAreAccepted(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/popup.js", "Kitten.meow();\n")

	assert.True(t, lint(t, dir, nil, file).Failed())
	assert.False(t, lint(t, dir, []string{"Kitten"}, file).Failed())
}

func TestSyntaxErrorIsReported(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/broken.js", "var x = ;\n")

	result := lint(t, dir, nil, file)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "syntax", result.Issues[0].Rule)
	assert.Equal(t, 1, result.Issues[0].Line)
}

func TestDebuggerStatementIsReported(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/debug.js", "function f() {\n  debugger;\n}\nf();\n")

	result := lint(t, dir, nil, file)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "debugger", result.Issues[0].Rule)
	assert.Equal(t, SeverityWarning, result.Issues[0].Severity)
	assert.Equal(t, 2, result.Issues[0].Line)
	assert.True(t, result.Failed())
}

func TestDebuggerPropertyIsNotReported(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/opts.js", "var o = {};\no.debugger = 1;\n")

	result := lint(t, dir, nil, file)
	assert.False(t, result.Failed(), "issues: %+v", result.Issues)
}

func TestConfigFileUnknownKeyIsReported(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "crxpack.yaml", "product: caturday\nproduct_name: oops\n")

	result := lint(t, dir, nil, file)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "config", result.Issues[0].Rule)
	assert.Equal(t, 2, result.Issues[0].Line)
}

func TestNonLintableFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "styles/main.css", "body { color: red }")

	result := lint(t, dir, nil, file)
	assert.Equal(t, 0, result.FilesTotal)
	assert.False(t, result.Failed())
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "scripts/popup.js", "meow();\n")
	result := lint(t, dir, nil, file)

	report := filepath.Join(dir, "reports", "lint-report.txt")
	require.NoError(t, WriteReport(report, result))

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "scripts/popup.js\n"))
	assert.Contains(t, text, "'meow' is not defined.")
	assert.Contains(t, text, "1 problem (1 error, 0 warnings) in 1 file")
}

func TestWriteReportClean(t *testing.T) {
	report := filepath.Join(t.TempDir(), "lint-report.txt")
	require.NoError(t, WriteReport(report, &Result{FilesTotal: 2}))

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Equal(t, "✔ No problems (2 files)\n", string(data))
}
