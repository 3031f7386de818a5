package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebaker/internal/config"
	"git.home.luguber.info/inful/pagebaker/internal/page"
)

func newTestRenderer(t *testing.T, layouts map[string]string) (*TemplateRenderer, *config.Store, *URLCache) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range layouts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".html"), []byte(body), 0o600))
	}
	store := config.NewStore(config.Default())
	urls := NewURLCache(store)
	return NewTemplateRenderer(store, urls, dir), store, urls
}

func TestRender_MarkdownWithDefaultLayout(t *testing.T) {
	r, _, _ := newTestRenderer(t, map[string]string{
		"default": "<html>{{.page.title}}|{{.content}}</html>",
	})
	p := page.New("hello", "hello.md", page.WithSource("---\ntitle: Hi\n---\n# {{.page.title}}\n"))

	out, err := r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "<html>Hi|<h1>Hi</h1>\n</html>", out)
}

func TestRender_MissingDefaultLayoutIsSkipped(t *testing.T) {
	r, _, _ := newTestRenderer(t, nil)
	p := page.New("about", "about.html", page.WithSource("<p>about</p>"))

	out, err := r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "<p>about</p>", out)
}

func TestRender_MissingExplicitLayoutFails(t *testing.T) {
	r, _, _ := newTestRenderer(t, nil)
	p := page.New("about", "about.html", page.WithSource("---\nlayout: fancy\n---\nx"))

	_, err := r.Render(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `layout "fancy" not found`)
}

func TestRender_LayoutNone(t *testing.T) {
	r, _, _ := newTestRenderer(t, map[string]string{"default": "wrapped {{.content}}"})
	p := page.New("about", "about.html", page.WithSource("---\nlayout: none\n---\nbare"))

	out, err := r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "bare", out)
}

func TestRender_RawPageSkipsLayoutAndEscaping(t *testing.T) {
	r, _, _ := newTestRenderer(t, map[string]string{"default": "wrapped {{.content}}"})
	p := page.New("feed.xml", "feed.xml", page.WithSource(`<link href="{{url "feed.xml"}}"/>`))

	out, err := r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, `<link href="/feed.xml"/>`, out)
}

func TestRender_URLsFollowRootAfterReset(t *testing.T) {
	r, store, urls := newTestRenderer(t, nil)
	p := page.New("about", "about.html", page.WithSource(`<a href="{{pageurl "blog" 2}}">next</a>`))

	out, err := r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, `<a href="/blog/2.html">next</a>`, out)

	require.NoError(t, store.SetValue(config.KeySiteRoot, "../"))
	urls.Reset()
	p.Unload()

	out, err = r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, `<a href="../blog/2.html">next</a>`, out)
}

func TestRender_PaginationAccess(t *testing.T) {
	r, _, _ := newTestRenderer(t, nil)
	items := []*page.Page{
		page.New("posts/a", "", page.WithSource("---\ntitle: A\n---\n")),
		page.New("posts/b", "", page.WithSource("---\ntitle: B\n---\n")),
	}
	hooks := &page.Hooks{Items: func() []*page.Page { return items }, PostsPerPage: func() int { return 1 }}
	p := page.New("blog", "blog.html", page.WithHooks(hooks),
		page.WithSource(`{{range .pagination.Items}}{{.title}}{{end}}`))

	out, err := r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "A", out)

	pg, err := p.Paginator()
	require.NoError(t, err)
	assert.True(t, pg.WasPaginationDataAccessed())
	assert.True(t, pg.HasMorePages())
}

func TestRender_UntouchedPaginationStaysUnaccessed(t *testing.T) {
	r, _, _ := newTestRenderer(t, nil)
	p := page.New("blog", "blog.html", page.WithSource(`{{if .pagination}}has paginator{{end}}`))

	out, err := r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "has paginator", out)

	pg, err := p.Paginator()
	require.NoError(t, err)
	assert.False(t, pg.WasPaginationDataAccessed())
}

func TestRender_TemplateError(t *testing.T) {
	r, _, _ := newTestRenderer(t, nil)
	p := page.New("bad", "bad.html", page.WithSource("{{.page.title"))

	_, err := r.Render(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse page template")
}

func TestRenderContent_Caches(t *testing.T) {
	r, _, _ := newTestRenderer(t, map[string]string{"default": "wrapped {{.content}}"})
	p := page.New("post", "post.md", page.WithSource("*hi*"))

	first, err := r.RenderContent(p)
	require.NoError(t, err)
	assert.Equal(t, "<p><em>hi</em></p>\n", first)

	cached, ok := p.CachedContent()
	require.True(t, ok)
	assert.Equal(t, first, cached)
}

func TestRender_CanceledContext(t *testing.T) {
	r, _, _ := newTestRenderer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Render(ctx, page.New("x", "x.html", page.WithSource("x")))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRender_MarkdownBlockquoteSurvivesTemplating(t *testing.T) {
	r, _, _ := newTestRenderer(t, nil)
	p := page.New("quote", "quote.md", page.WithSource("> {{.page.title}}\n"))

	out, err := r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "<blockquote>\n<p>quote</p>\n</blockquote>\n", out)
}

func TestRender_PageURLFollowsTargetPageStyle(t *testing.T) {
	r, _, _ := newTestRenderer(t, nil)
	target := page.New("docs", "", page.WithSource("---\npretty_urls: true\n---\nx"))
	r.SetPageLookup(func(uri string) (*page.Page, bool) {
		if uri == target.URI() {
			return target, true
		}
		return nil, false
	})
	p := page.New("about", "about.html", page.WithSource(`{{pageurl "docs" 2}} {{pageurl "blog"}}`))

	out, err := r.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "/docs/2/ /blog.html", out)
}
