package linkcheck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
)

func writeTree(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	root := t.TempDir()
	var written []string
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
		written = append(written, filepath.ToSlash(full))
	}
	return root, written
}

func TestExtractLinksFromReader(t *testing.T) {
	doc := `<html><head><link rel="stylesheet" href="/css/site.css"><script src="app.js"></script></head>
<body><a href="/about/">About</a><a>no href</a><img src=" cover.png " alt="c"></body></html>`

	links, err := ExtractLinksFromReader(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, links, 4)
	assert.Equal(t, "/css/site.css", links[0].URL)
	assert.Equal(t, "link", links[0].Tag)
	assert.Equal(t, "app.js", links[1].URL)
	assert.Equal(t, "/about/", links[2].URL)
	assert.Equal(t, "href", links[2].Attribute)
	assert.Equal(t, "cover.png", links[3].URL)
}

func TestCheckTree_AllLinksResolve(t *testing.T) {
	root, files := writeTree(t, map[string]string{
		"index.html":        `<a href="/blog/">blog</a><a href="/blog/2/">page 2</a><a href="about">about</a>`,
		"about.html":        `<a href="https://example.com/">ext</a><a href="#top">top</a><a href="mailto:a@b.c">mail</a>`,
		"blog/index.html":   `<a href="../">home</a><img src="cover.png">`,
		"blog/cover.png":    `png`,
		"blog/2/index.html": `<a href="../../index.html?x=1#y">home</a>`,
		"feed.xml":          `<a href="/missing">ignored</a>`,
	})

	report, err := NewChecker(root, "/").CheckTree(t.Context(), files)
	require.NoError(t, err)
	assert.True(t, report.OK(), "broken: %+v", report.Broken)
	assert.NoError(t, report.Err())
	assert.Equal(t, 4, report.Pages)
	assert.Equal(t, 6, report.Checked)
}

func TestCheckTree_ReportsBrokenLinks(t *testing.T) {
	root, files := writeTree(t, map[string]string{
		"index.html":      `<a href="/nope.html">x</a>`,
		"blog/index.html": `<a href="../../outside.html">x</a><img src="missing.png">`,
	})

	report, err := NewChecker(root, "/").CheckTree(t.Context(), files)
	require.NoError(t, err)
	require.Len(t, report.Broken, 3)

	targets := make([]string, 0, len(report.Broken))
	for _, b := range report.Broken {
		targets = append(targets, b.Target)
	}
	assert.ElementsMatch(t, []string{"nope.html", "../outside.html", "blog/missing.png"}, targets)

	err = report.Err()
	require.Error(t, err)
	assert.Equal(t, errors.CategoryLinks, errors.GetCategory(err))
}

func TestCheckTree_SiteRootPrefix(t *testing.T) {
	root, files := writeTree(t, map[string]string{
		"index.html": `<a href="/docs/about.html">about</a><a href="/docs">home</a><a href="/elsewhere.html">x</a>`,
		"about.html": ``,
	})

	report, err := NewChecker(root, "/docs/").CheckTree(t.Context(), files)
	require.NoError(t, err)
	require.Len(t, report.Broken, 1)
	assert.Equal(t, "elsewhere.html", report.Broken[0].Target)
}

func TestCheckTree_Canceled(t *testing.T) {
	root, files := writeTree(t, map[string]string{"index.html": ``})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewChecker(root, "/").CheckTree(ctx, files)
	require.ErrorIs(t, err, context.Canceled)
}
