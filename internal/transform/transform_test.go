package transform

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/internal/usemin"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func TestBundlerConcatenatesInOrderAndMinifies(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFile(t, src, "scripts/a.js", "var first = 'alpha'\n")
	writeFile(t, src, "scripts/b.js", "console.log(  first  );\n")
	writeFile(t, src, "styles/a.css", "body {\n  color : red;\n}\n")
	writeFile(t, src, "styles/b.css", "p {\n  margin : 0px;\n}\n")

	report, err := NewBundler(src, dist, false).Run(context.Background(), []usemin.Bundle{
		{Type: usemin.TypeJS, Dest: "scripts/popup.js", Sources: []string{"scripts/a.js", "scripts/b.js"}},
		{Type: usemin.TypeCSS, Dest: "styles/main.css", Sources: []string{"styles/a.css", "styles/b.css"}},
	})
	require.NoError(t, err)
	require.Len(t, report.Outputs, 2)
	assert.Equal(t, "scripts/popup.js", report.Revisions["scripts/popup.js"])

	js := readFile(t, dist, "scripts/popup.js")
	assert.Less(t, strings.Index(js, "alpha"), strings.Index(js, "console.log"))
	assert.NotContains(t, js, "  ")

	css := readFile(t, dist, "styles/main.css")
	assert.Less(t, strings.Index(css, "color"), strings.Index(css, "margin"))
	assert.NotContains(t, css, "\n  ")
}

func TestBundlerRevision(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFile(t, src, "scripts/a.js", "console.log(1);\n")

	report, err := NewBundler(src, dist, true).Run(context.Background(), []usemin.Bundle{
		{Type: usemin.TypeJS, Dest: "scripts/popup.js", Sources: []string{"scripts/a.js"}},
	})
	require.NoError(t, err)

	written := report.Revisions["scripts/popup.js"]
	assert.Regexp(t, regexp.MustCompile(`^scripts/popup\.[0-9a-f]{8}\.js$`), written)
	assert.FileExists(t, filepath.Join(dist, filepath.FromSlash(written)))
	assert.NoFileExists(t, filepath.Join(dist, "scripts", "popup.js"))
}

func TestRevisionNameIsStable(t *testing.T) {
	a := RevisionName("styles/main.css", []byte("body{}"))
	assert.Equal(t, a, RevisionName("styles/main.css", []byte("body{}")))
	assert.NotEqual(t, a, RevisionName("styles/main.css", []byte("p{}")))
}

func TestBundlerMissingInput(t *testing.T) {
	_, err := NewBundler(t.TempDir(), t.TempDir(), false).Run(context.Background(), []usemin.Bundle{
		{Type: usemin.TypeJS, Dest: "scripts/popup.js", Sources: []string{"scripts/gone.js"}},
	})
	require.Error(t, err)
	assert.True(t, perrors.IsCategory(err, perrors.CategoryTransform))

	pe, ok := perrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "scripts/gone.js", pe.Context["source"])
}

func TestBundlerMinifyErrorNamesBundle(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "scripts/a.js", "function (\n")

	_, err := NewBundler(src, t.TempDir(), false).Run(context.Background(), []usemin.Bundle{
		{Type: usemin.TypeJS, Dest: "scripts/popup.js", Sources: []string{"scripts/a.js"}},
	})
	require.Error(t, err)
	assert.True(t, perrors.IsCategory(err, perrors.CategoryTransform))
	assert.Contains(t, err.Error(), "scripts/popup.js")
}

func TestCopierKeepsPathsAndModes(t *testing.T) {
	src, dist := t.TempDir(), t.TempDir()
	writeFile(t, src, "manifest.json", "{}")
	writeFile(t, src, "images/icons/cat.png", "png")
	require.NoError(t, os.Chmod(filepath.Join(src, "images", "icons", "cat.png"), 0o600))

	n, err := NewCopier(src, dist).Run(context.Background(), []string{"manifest.json", "images/icons/cat.png"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "png", readFile(t, dist, "images/icons/cat.png"))
	info, err := os.Stat(filepath.Join(dist, "images", "icons", "cat.png"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCopierMissingSource(t *testing.T) {
	_, err := NewCopier(t.TempDir(), t.TempDir()).Run(context.Background(), []string{"popup.html"})
	require.Error(t, err)
	assert.True(t, perrors.IsCategory(err, perrors.CategoryTransform))
}

func TestHTMLMinifierRunsOnTopLevelFiles(t *testing.T) {
	dist := t.TempDir()
	page := `<!DOCTYPE html>
<html>
  <head>
    <!-- popup -->
    <style>
      body { color : red; }
    </style>
  </head>
  <body>
    <div id="cats">   Cats   </div>
  </body>
</html>
`
	writeFile(t, dist, "popup.html", page)
	writeFile(t, dist, "pages/deep.html", page)

	n, err := NewHTMLMinifier().Run(context.Background(), dist)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := readFile(t, dist, "popup.html")
	assert.Less(t, len(out), len(page))
	assert.NotContains(t, out, "<!-- popup -->")
	assert.NotContains(t, out, "\n  ")
	assert.Contains(t, out, "cats")
	assert.Contains(t, out, "color:red")

	assert.Equal(t, page, readFile(t, dist, "pages/deep.html"))
}

func TestHTMLMinifierKeepsConditionalComments(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
  <head>
    <!--[if IE]><script src="ie.js"></script><![endif]-->
    <!-- plain -->
  </head>
  <body><p>hi</p></body>
</html>
`
	out, err := NewHTMLMinifier().Minify("popup.html", []byte(page))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "<!--[if IE]>")
	assert.Contains(t, text, "ie.js")
	assert.Contains(t, text, "<![endif]-->")
	assert.NotContains(t, text, "plain")
}
