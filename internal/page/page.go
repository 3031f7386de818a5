// Package page models the content pages a site bakes: their source, their
// lazily computed template data, pagination and assets.
package page

import (
	"maps"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebaker/internal/frontmatter"
)

// Format identifies how a page body is turned into output.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	// FormatRaw pages (feeds, robots.txt, ...) skip markdown and layouts.
	FormatRaw Format = "raw"
)

// Data keys every computed page data map carries.
const (
	DataPage       = "page"
	DataSite       = "site"
	DataPagination = "pagination"
	DataAsset      = "asset"
)

// KeyPrettyURLs is the header field overriding site/pretty_urls for one page.
const KeyPrettyURLs = "pretty_urls"

// Hooks connect pages to the environment they are rendered in. All fields are optional.
type Hooks struct {
	// URL formats the URL of uri at pageNumber against the current site root.
	// pretty is the target page's pretty_urls header, nil when it has none.
	URL func(uri string, pageNumber int, pretty *bool) string
	// SiteRoot returns the current site root.
	SiteRoot func() string
	// Site returns the `site` template section.
	Site func() map[string]any
	// Items returns the pages a paginator pages through.
	Items func() []*Page
	// ItemContent renders the body of an item page for listings.
	ItemContent func(p *Page) (string, error)
	// PostsPerPage is the site-wide page size.
	PostsPerPage func() int
}

// Page is one logical content page. A page is not safe for concurrent use.
type Page struct {
	uri        string
	sourcePath string
	format     Format
	assetDir   string
	hooks      *Hooks

	pageNumber int
	generation uint64

	loaded      bool
	fields      map[string]any
	body        string
	fingerprint string
	content     *string

	extraData  map[string]any
	assetRemap string

	data      map[string]any
	paginator *Paginator
	assetor   *Assetor
}

// Option configures a Page at construction.
type Option func(*Page)

// WithFormat overrides the format derived from the source extension.
func WithFormat(f Format) Option { return func(p *Page) { p.format = f } }

// WithAssetDir sets the directory holding the page's assets.
func WithAssetDir(dir string) Option { return func(p *Page) { p.assetDir = dir } }

// WithHooks attaches environment hooks.
func WithHooks(h *Hooks) Option { return func(p *Page) { p.hooks = h } }

// WithSource sets in-memory source content; the page never reads sourcePath.
func WithSource(content string) Option {
	return func(p *Page) {
		_ = p.parse([]byte(content))
	}
}

// New creates a page for uri backed by sourcePath. The page starts at page number 1.
func New(uri, sourcePath string, opts ...Option) *Page {
	p := &Page{
		uri:        strings.Trim(filepath.ToSlash(uri), "/"),
		sourcePath: sourcePath,
		format:     FormatFromPath(sourcePath),
		pageNumber: 1,
		hooks:      &Hooks{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.assetDir == "" && sourcePath != "" {
		p.assetDir = AssetDirFor(sourcePath)
	}
	return p
}

// FormatFromPath derives the page format from a source file extension.
func FormatFromPath(sourcePath string) Format {
	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".html", ".htm", "":
		return FormatHTML
	default:
		return FormatRaw
	}
}

// AssetDirFor returns the `<name>-assets` directory next to a page source.
func AssetDirFor(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + "-assets"
}

func (p *Page) URI() string        { return p.uri }
func (p *Page) SourcePath() string { return p.sourcePath }
func (p *Page) Format() Format     { return p.format }
func (p *Page) AssetDir() string   { return p.assetDir }
func (p *Page) PageNumber() int    { return p.pageNumber }

// Generation increases every time the page's cached data is invalidated.
func (p *Page) Generation() uint64 { return p.generation }

// SetPageNumber moves the page to page number n (values below 1 are treated as 1)
// and drops the cached page data.
func (p *Page) SetPageNumber(n int) {
	if n < 1 {
		n = 1
	}
	if n == p.pageNumber {
		return
	}
	p.pageNumber = n
	p.invalidate()
}

// SetExtraPageData replaces the extra template data merged into the page data.
func (p *Page) SetExtraPageData(extra map[string]any) {
	p.extraData = maps.Clone(extra)
	p.invalidate()
}

// SetAssetURLBaseRemap sets the pattern asset URLs are built from. `%site_root%`
// and `%uri%` are substituted; an empty pattern restores the source layout.
func (p *Page) SetAssetURLBaseRemap(pattern string) {
	if pattern == p.assetRemap {
		return
	}
	p.assetRemap = pattern
	p.invalidate()
}

// Unload forgets the parsed source, rendered content and page data. The next
// access reloads from disk.
func (p *Page) Unload() {
	if p.sourcePath != "" {
		p.loaded = false
		p.fields = nil
		p.body = ""
		p.fingerprint = ""
	}
	p.content = nil
	p.invalidate()
}

// IsLoaded reports whether the source is currently parsed.
func (p *Page) IsLoaded() bool { return p.loaded }

func (p *Page) invalidate() {
	p.data = nil
	p.paginator = nil
	p.assetor = nil
	p.generation++
}

// Load parses the page source if it is not loaded yet.
func (p *Page) Load() error {
	if p.loaded {
		return nil
	}
	raw, err := os.ReadFile(filepath.Clean(p.sourcePath))
	if err != nil {
		return errors.WrapError(err, errors.CategoryContent, "failed to read page source").
			WithContext("path", p.sourcePath).
			Build()
	}
	return p.parse(raw)
}

func (p *Page) parse(raw []byte) error {
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return errors.WrapError(err, errors.CategoryContent, "invalid page source").
			WithContext("path", p.sourcePath).
			WithContext("uri", p.uri).
			Build()
	}
	p.fields = doc.Fields
	p.body = string(doc.Body)
	p.fingerprint = mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(doc.Raw), "\n"), p.body)
	p.loaded = true
	return nil
}

// Body returns the page body without its header.
func (p *Page) Body() (string, error) {
	if err := p.Load(); err != nil {
		return "", err
	}
	return p.body, nil
}

// Fingerprint returns the content fingerprint of the page source.
func (p *Page) Fingerprint() (string, error) {
	if err := p.Load(); err != nil {
		return "", err
	}
	return p.fingerprint, nil
}

// Config returns the page header fields. The map must not be modified.
func (p *Page) Config() (map[string]any, error) {
	if err := p.Load(); err != nil {
		return nil, err
	}
	return p.fields, nil
}

// ConfigValue returns a single header field.
func (p *Page) ConfigValue(key string) (any, bool) {
	if err := p.Load(); err != nil {
		return nil, false
	}
	v, ok := p.fields[key]
	return v, ok
}

// Title returns the `title` header field, falling back to the URI's last segment.
func (p *Page) Title() string {
	if t, ok := p.ConfigValue("title"); ok {
		if s, ok := t.(string); ok && s != "" {
			return s
		}
	}
	if p.uri == "" {
		return "index"
	}
	return path.Base(p.uri)
}

// CachedContent returns the rendered body cached by SetCachedContent.
func (p *Page) CachedContent() (string, bool) {
	if p.content == nil {
		return "", false
	}
	return *p.content, true
}

// SetCachedContent caches the rendered body; Unload clears it.
func (p *Page) SetCachedContent(content string) { p.content = &content }

// PageData returns the template data for the current page number, computing it
// on first access after an invalidation.
func (p *Page) PageData() (map[string]any, error) {
	if p.data != nil {
		return p.data, nil
	}
	if err := p.Load(); err != nil {
		return nil, err
	}

	p.paginator = newPaginator(p)
	p.assetor = newAssetor(p)

	pageSection := maps.Clone(p.fields)
	if pageSection == nil {
		pageSection = map[string]any{}
	}
	pageSection["uri"] = p.uri
	pageSection["title"] = p.Title()
	pageSection["page_number"] = p.pageNumber
	pageSection["url"] = p.url(p.uri, p.pageNumber, p.PrettyURLs())

	data := map[string]any{
		DataPage: pageSection,
		DataSite: p.site(),
	}
	for k, v := range p.extraData {
		data[k] = v
	}
	// Extra data never shadows the pagination and asset objects.
	data[DataPagination] = p.paginator
	data[DataAsset] = p.assetor

	p.data = data
	return data, nil
}

// Paginator returns the pagination state of the current page data.
func (p *Page) Paginator() (*Paginator, error) {
	if _, err := p.PageData(); err != nil {
		return nil, err
	}
	return p.paginator, nil
}

// Assetor returns the asset set of the current page data.
func (p *Page) Assetor() (*Assetor, error) {
	if _, err := p.PageData(); err != nil {
		return nil, err
	}
	return p.assetor, nil
}

// PrettyURLs returns the page's pretty_urls header, or nil when the page
// follows the site setting.
func (p *Page) PrettyURLs() *bool {
	v, ok := p.ConfigValue(KeyPrettyURLs)
	if !ok {
		return nil
	}
	pretty, ok := v.(bool)
	if !ok {
		return nil
	}
	return &pretty
}

func (p *Page) url(uri string, n int, pretty *bool) string {
	if p.hooks.URL != nil {
		return p.hooks.URL(uri, n, pretty)
	}
	u := "/" + uri
	if n > 1 {
		u = strings.TrimSuffix(u, "/") + "/" + strconv.Itoa(n)
	}
	return u
}

func (p *Page) siteRoot() string {
	if p.hooks.SiteRoot != nil {
		return p.hooks.SiteRoot()
	}
	return "/"
}

func (p *Page) site() map[string]any {
	if p.hooks.Site != nil {
		return p.hooks.Site()
	}
	return map[string]any{}
}
