package render

import (
	"strings"
	"sync"

	"git.home.luguber.info/inful/pagebaker/internal/baker"
	"git.home.luguber.info/inful/pagebaker/internal/config"
)

// URLDecorator formats site URLs for one site root and URL style. It captures
// the configuration when it is built; URLCache.Reset forces a rebuild.
type URLDecorator struct {
	root   string
	pretty bool
}

// Root returns the site root the decorator was built with.
func (d *URLDecorator) Root() string { return d.root }

// SiteURL prefixes a site-relative path with the root.
func (d *URLDecorator) SiteURL(p string) string {
	return d.root + strings.TrimLeft(p, "/")
}

// Pretty reports the site-wide URL style.
func (d *URLDecorator) Pretty() bool { return d.pretty }

// PageURL returns the URL the baker writes uri at pageNumber to under the
// site-wide URL style.
func (d *URLDecorator) PageURL(uri string, pageNumber int) string {
	return d.PageURLStyle(uri, pageNumber, d.pretty)
}

// PageURLStyle is PageURL for a page that picks its own URL style.
func (d *URLDecorator) PageURLStyle(uri string, pageNumber int, pretty bool) string {
	rel := baker.RelativePath(uri, pageNumber, pretty)
	if pretty {
		rel = strings.TrimSuffix(rel, baker.IndexDocument)
	}
	return d.root + rel
}

// URLCache lazily builds the URLDecorator from the configuration store.
type URLCache struct {
	store *config.Store

	mu      sync.Mutex
	current *URLDecorator
	builds  int
}

// NewURLCache returns a cache reading from store.
func NewURLCache(store *config.Store) *URLCache {
	return &URLCache{store: store}
}

// Get returns the cached decorator, building it on first use.
func (c *URLCache) Get() *URLDecorator {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		c.current = &URLDecorator{
			root:   c.store.String(config.KeySiteRoot),
			pretty: c.store.Bool(config.KeySitePrettyURLs),
		}
		c.builds++
	}
	return c.current
}

// Reset drops the cached decorator.
func (c *URLCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// Builds returns how many decorators have been built.
func (c *URLCache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
