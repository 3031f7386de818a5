package page

import (
	"slices"
	"sync"
)

// Repository is the set of pages currently known to a site, in insertion order.
type Repository struct {
	mu    sync.RWMutex
	pages []*Page
	byURI map[string]*Page
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{byURI: map[string]*Page{}}
}

// Add registers p, replacing a page with the same URI.
func (r *Repository) Add(p *Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byURI[p.URI()]; ok {
		idx := slices.Index(r.pages, old)
		r.pages[idx] = p
	} else {
		r.pages = append(r.pages, p)
	}
	r.byURI[p.URI()] = p
}

// Get returns the page registered for uri.
func (r *Repository) Get(uri string) (*Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byURI[uri]
	return p, ok
}

// Pages returns a snapshot of every page.
func (r *Repository) Pages() []*Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.pages)
}

// Len returns the number of pages.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}

// UnloadAll unloads every page.
func (r *Repository) UnloadAll() {
	for _, p := range r.Pages() {
		p.Unload()
	}
}
