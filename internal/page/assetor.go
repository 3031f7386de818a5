package page

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Assetor exposes a page's asset files to templates and to the baker.
type Assetor struct {
	page  *Page
	paths []string
	read  bool
}

func newAssetor(p *Page) *Assetor {
	return &Assetor{page: p}
}

// AssetPathnames returns the absolute source paths of the page's assets in
// lexical order, or nil when the page has none.
func (a *Assetor) AssetPathnames() []string {
	if a.read {
		return a.paths
	}
	a.read = true
	dir := a.page.assetDir
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		a.paths = append(a.paths, abs)
	}
	slices.Sort(a.paths)
	return a.paths
}

// Names returns the base names of the page's assets.
func (a *Assetor) Names() []string {
	paths := a.AssetPathnames()
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return names
}

// SourceLayoutDir is the site-relative directory assets are served from when
// they are not copied next to the baked page: "<uri>-assets", or
// "index-assets" for the site root.
func (a *Assetor) SourceLayoutDir() string {
	if a.page.uri == "" {
		return "index-assets"
	}
	return a.page.uri + "-assets"
}

// URL returns the URL of the named asset.
//
// With a remap pattern set (the baker sets "%site_root%%uri%" when it copies
// assets) the URL points next to the baked page; otherwise it points at the
// `<uri>-assets` source layout.
func (a *Assetor) URL(name string) string {
	root := a.page.siteRoot()
	var base string
	if pattern := a.page.assetRemap; pattern != "" {
		base = strings.NewReplacer("%site_root%", root, "%uri%", a.page.uri).Replace(pattern)
	} else {
		base = root + a.SourceLayoutDir()
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + name
}
