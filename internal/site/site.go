// Package site discovers the pages of a site directory and bakes all of them
// into the configured output directory.
package site

import (
	"cmp"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/pagebaker/internal/config"
	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebaker/internal/page"
	"git.home.luguber.info/inful/pagebaker/internal/render"
)

// assetDirSuffix marks directories holding a page's assets.
const assetDirSuffix = "-assets"

// Site is a discovered site ready to bake.
type Site struct {
	cfg      *config.Config
	env      *Environment
	renderer *render.TemplateRenderer

	pages []*page.Page
	posts []*page.Page
}

// Open discovers the pages and posts of the site described by cfg.
func Open(cfg *config.Config) (*Site, error) {
	store := config.NewStore(cfg)
	env := NewEnvironment(store)
	s := &Site{
		cfg:      cfg,
		env:      env,
		renderer: render.NewTemplateRenderer(store, env.URLs(), cfg.Resolve(cfg.Content.LayoutsDir)),
	}
	hooks := s.hooks()
	s.renderer.SetPageLookup(env.pages.Get)

	pagesDir := cfg.Resolve(cfg.Content.PagesDir)
	if st, err := os.Stat(pagesDir); err != nil || !st.IsDir() {
		return nil, errors.ContentError("pages directory not found").
			WithContext("path", pagesDir).
			Build()
	}
	pages, err := discover(pagesDir, "", hooks)
	if err != nil {
		return nil, err
	}

	postsDir := cfg.Resolve(cfg.Content.PostsDir)
	var posts []*page.Page
	if st, err := os.Stat(postsDir); err == nil && st.IsDir() {
		posts, err = discover(postsDir, filepath.Base(postsDir), hooks)
		if err != nil {
			return nil, err
		}
		sortPosts(posts)
	}

	s.pages = pages
	s.posts = posts
	for _, p := range s.All() {
		env.pages.Add(p)
	}
	return s, nil
}

// Config returns the site configuration.
func (s *Site) Config() *config.Config { return s.cfg }

// Environment returns the run-wide state of the site.
func (s *Site) Environment() *Environment { return s.env }

// Renderer returns the template renderer.
func (s *Site) Renderer() *render.TemplateRenderer { return s.renderer }

// Pages returns the pages discovered in the pages directory.
func (s *Site) Pages() []*page.Page { return slices.Clone(s.pages) }

// Posts returns the posts, newest first.
func (s *Site) Posts() []*page.Page { return slices.Clone(s.posts) }

// All returns pages followed by posts, in bake order.
func (s *Site) All() []*page.Page {
	return slices.Concat(s.pages, s.posts)
}

// OutputDir returns the absolute output directory.
func (s *Site) OutputDir() string {
	out := s.cfg.Resolve(s.cfg.Baker.OutputDir)
	if abs, err := filepath.Abs(out); err == nil {
		return abs
	}
	return out
}

// WatchDirs returns the content directories a watcher should observe.
func (s *Site) WatchDirs() []string {
	var dirs []string
	for _, d := range []string{s.cfg.Content.PagesDir, s.cfg.Content.PostsDir, s.cfg.Content.LayoutsDir} {
		dir := s.cfg.Resolve(d)
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (s *Site) hooks() *page.Hooks {
	store := s.env.store
	urls := s.env.urls
	return &page.Hooks{
		URL: func(uri string, n int, pretty *bool) string {
			d := urls.Get()
			if pretty != nil {
				return d.PageURLStyle(uri, n, *pretty)
			}
			return d.PageURL(uri, n)
		},
		SiteRoot: func() string { return urls.Get().Root() },
		Site:     func() map[string]any { return store.Section("site") },
		Items:    func() []*page.Page { return s.posts },
		ItemContent: func(p *page.Page) (string, error) {
			return s.renderer.RenderContent(p)
		},
		PostsPerPage: func() int { return store.Int(config.KeySitePostsPerPage) },
	}
}

// discover walks dir and creates a page per source file. Dotfiles and
// `<name>-assets` directories are skipped.
func discover(dir, uriPrefix string, hooks *page.Hooks) ([]*page.Page, error) {
	var pages []*page.Page
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if p != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasSuffix(name, assetDirSuffix) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		uri := URIFromPath(filepath.ToSlash(rel))
		if uriPrefix != "" {
			uri = strings.Trim(path.Join(uriPrefix, uri), "/")
		}
		pages = append(pages, page.New(uri, p, page.WithHooks(hooks)))
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "failed to discover pages").
			WithContext("path", dir).
			Build()
	}
	return pages, nil
}

// URIFromPath maps a source path relative to its content directory to a page
// URI. Page extensions are dropped (other extensions such as `.xml` are kept)
// and `index` files map to their directory.
func URIFromPath(rel string) string {
	switch ext := path.Ext(rel); strings.ToLower(ext) {
	case ".html", ".htm", ".md", ".markdown":
		rel = strings.TrimSuffix(rel, ext)
	}
	if path.Base(rel) == "index" {
		rel = path.Dir(rel)
	}
	if rel == "." {
		return ""
	}
	return rel
}

// sortPosts orders posts newest first, then by URI.
func sortPosts(posts []*page.Page) {
	slices.SortStableFunc(posts, func(a, b *page.Page) int {
		da, _ := page.ItemDate(a)
		db, _ := page.ItemDate(b)
		if c := db.Compare(da); c != 0 {
			return c
		}
		return cmp.Compare(a.URI(), b.URI())
	})
}
