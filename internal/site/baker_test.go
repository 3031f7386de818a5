package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebaker/internal/bakerecord"
	"git.home.luguber.info/inful/pagebaker/internal/config"
	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebaker/internal/metrics"
)

type countingRecorder struct {
	metrics.NoopRecorder
	files    int
	assets   int
	results  map[metrics.ResultLabel]int
	outcomes []string
	broken   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{results: map[metrics.ResultLabel]int{}}
}

func (c *countingRecorder) AddBakedFiles(n int)                 { c.files += n }
func (c *countingRecorder) AddCopiedAssets(n int)               { c.assets += n }
func (c *countingRecorder) IncPageResult(r metrics.ResultLabel) { c.results[r]++ }
func (c *countingRecorder) IncBakeOutcome(outcome string)       { c.outcomes = append(c.outcomes, outcome) }
func (c *countingRecorder) SetBrokenLinks(n int)                { c.broken = n }

func read(t *testing.T, parts ...string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(parts...))
	require.NoError(t, err)
	return string(raw)
}

func TestBakeAll(t *testing.T) {
	dir := writeSite(t, blogSite())
	cfg := testConfig(dir)
	cfg.Baker.CopyAssets = true
	cfg.Baker.CheckLinks = true

	s, err := Open(cfg)
	require.NoError(t, err)

	record, err := bakerecord.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = record.Close() }()

	rec := newCountingRecorder()
	b := NewBaker(s, WithRecorder(rec), WithRecord(record))
	b.newRunID = func() string { return "run-1" }

	summary, err := b.BakeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", summary.RunID)
	assert.Empty(t, summary.Failures())
	require.NotNil(t, summary.Links)
	assert.True(t, summary.Links.OK(), "broken: %+v", summary.Links.Broken)

	out := filepath.Join(dir, "_counter")
	assert.Equal(t,
		`<html><a href="/posts/third.html">Third</a><a href="/posts/second.html">Second</a></html>`,
		read(t, out, "index.html"))
	assert.Equal(t, `<html><a href="/posts/first.html">First</a></html>`, read(t, out, "index", "2.html"))
	assert.Equal(t, "<feed>Test Blog</feed>", read(t, out, "feed.xml"))
	assert.Contains(t, read(t, out, "about.html"), `<img src="/about/cover.png" alt="cover">`)
	assert.Equal(t, "PNG", read(t, out, "about", "cover.png"))
	assert.Equal(t, "<html><p>three</p>\n</html>", read(t, out, "posts", "third.html"))
	assert.NoFileExists(t, filepath.Join(out, "draft.html"))

	assert.Len(t, summary.Files(), 7)
	assert.Equal(t, 7, rec.files)
	assert.Equal(t, 1, rec.assets)
	assert.Equal(t, 6, rec.results[metrics.ResultSuccess])
	assert.Equal(t, []string{"success"}, rec.outcomes)

	run, err := record.Run(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, bakerecord.OutcomeSuccess, run.Outcome)
	assert.Equal(t, 6, run.Pages)
	assert.Equal(t, 7, run.Files)

	entries, err := record.Entries(context.Background(), "run-1")
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEmpty(t, e.Fingerprint, e.URI)
		if e.URI == "" {
			assert.True(t, e.PaginationAccessed)
			assert.Len(t, e.Files, 2)
		}
	}
}

func TestBakeAll_PortablePrettyURLs(t *testing.T) {
	dir := writeSite(t, blogSite())
	cfg := testConfig(dir)
	cfg.Site.PrettyURLs = true
	cfg.Baker.PortableURLs = true
	cfg.Baker.CopyAssets = true
	cfg.Baker.CheckLinks = true

	s, err := Open(cfg)
	require.NoError(t, err)
	summary, err := NewBaker(s).BakeAll(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Links.OK(), "broken: %+v", summary.Links.Broken)

	out := filepath.Join(dir, "_counter")
	assert.Equal(t,
		`<html><a href="./posts/third/">Third</a><a href="./posts/second/">Second</a></html>`,
		read(t, out, "index.html"))
	assert.Equal(t, `<html><a href="../posts/first/">First</a></html>`, read(t, out, "2", "index.html"))
	assert.Contains(t, read(t, out, "about", "index.html"), `<img src="../about/cover.png" alt="cover">`)
	assert.FileExists(t, filepath.Join(out, "about", "cover.png"))

	assert.Equal(t, "/", s.Environment().Store().String(config.KeySiteRoot))
}

func TestBakeAll_FailedPageDoesNotStopRun(t *testing.T) {
	files := blogSite()
	files["pages/broken.html"] = "{{.page.title"
	dir := writeSite(t, files)

	s, err := Open(testConfig(dir))
	require.NoError(t, err)
	rec := newCountingRecorder()
	summary, err := NewBaker(s, WithRecorder(rec)).BakeAll(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.CategoryBake, errors.GetCategory(err))
	assert.Contains(t, err.Error(), "error baking page 'broken' (p1)")
	require.Len(t, summary.Failures(), 1)
	assert.Equal(t, "broken", summary.Failures()[0].URI)
	assert.Len(t, summary.Pages, 7)
	assert.Equal(t, 1, rec.results[metrics.ResultFailed])
	assert.Equal(t, []string{"failed"}, rec.outcomes)
}

func TestBakeAll_StopOnError(t *testing.T) {
	files := blogSite()
	files["pages/aaa.html"] = "{{.page.title"
	dir := writeSite(t, files)

	cfg := testConfig(dir)
	cfg.Baker.StopOnError = true
	s, err := Open(cfg)
	require.NoError(t, err)

	summary, err := NewBaker(s).BakeAll(context.Background())
	require.Error(t, err)
	assert.Len(t, summary.Pages, 1)
}

func TestBakeAll_BrokenLinks(t *testing.T) {
	files := blogSite()
	files["pages/links.html"] = `<a href="/nowhere.html">x</a>`
	dir := writeSite(t, files)

	cfg := testConfig(dir)
	cfg.Baker.CheckLinks = true
	s, err := Open(cfg)
	require.NoError(t, err)

	rec := newCountingRecorder()
	summary, err := NewBaker(s, WithRecorder(rec)).BakeAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CategoryLinks, errors.GetCategory(err))
	assert.Empty(t, summary.Failures())
	assert.Equal(t, 1, rec.broken)
	require.Len(t, summary.Links.Broken, 1)
	assert.Equal(t, "/nowhere.html", summary.Links.Broken[0].Link.URL)
}

func TestBakeAll_AssetsWithoutCopyAssets(t *testing.T) {
	dir := writeSite(t, blogSite())
	cfg := testConfig(dir)
	cfg.Baker.CheckLinks = true
	s, err := Open(cfg)
	require.NoError(t, err)

	rec := newCountingRecorder()
	summary, err := NewBaker(s, WithRecorder(rec)).BakeAll(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Links.OK(), "broken: %+v", summary.Links.Broken)

	out := filepath.Join(dir, "_counter")
	assert.Contains(t, read(t, out, "about.html"), `<img src="/about-assets/cover.png" alt="cover">`)
	assert.Equal(t, "PNG", read(t, out, "about-assets", "cover.png"))
	assert.NoDirExists(t, filepath.Join(out, "about"))
	assert.Equal(t, 1, rec.assets)
}

func TestBakeAll_PagePrettyURLsOverride(t *testing.T) {
	files := blogSite()
	files["pages/index.html"] = "---\npretty_urls: false\n---\n" +
		`<a href="{{.page.url}}">self</a><a href="{{.pagination.NextURL}}">next</a><a href="{{pageurl "about"}}">about</a>`
	dir := writeSite(t, files)
	cfg := testConfig(dir)
	cfg.Site.PrettyURLs = true
	cfg.Baker.CheckLinks = true
	s, err := Open(cfg)
	require.NoError(t, err)

	summary, err := NewBaker(s).BakeAll(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Links.OK(), "broken: %+v", summary.Links.Broken)

	out := filepath.Join(dir, "_counter")
	assert.Equal(t,
		`<html><a href="/index.html">self</a><a href="/index/2.html">next</a><a href="/about/">about</a></html>`,
		read(t, out, "index.html"))
	assert.FileExists(t, filepath.Join(out, "index", "2.html"))
	assert.NoFileExists(t, filepath.Join(out, "2", "index.html"))
}

func TestBakeAll_Rebake(t *testing.T) {
	dir := writeSite(t, blogSite())
	s, err := Open(testConfig(dir))
	require.NoError(t, err)
	b := NewBaker(s)

	first, err := b.BakeAll(context.Background())
	require.NoError(t, err)
	second, err := b.BakeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Files(), second.Files())
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestBakeAll_Canceled(t *testing.T) {
	dir := writeSite(t, blogSite())
	s, err := Open(testConfig(dir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := NewBaker(s).BakeAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Pages)
}
