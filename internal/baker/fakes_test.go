package baker

import (
	"context"
	"fmt"
	"strings"
)

type fakePagination struct {
	pageNumber int
	totalPages int
	accessed   bool
}

func (f *fakePagination) WasPaginationDataAccessed() bool { return f.accessed }
func (f *fakePagination) HasMorePages() bool              { return f.pageNumber < f.totalPages }

type fakeAssets []string

func (f fakeAssets) AssetPathnames() []string { return f }

// fakePage computes its data lazily and drops it on every mutation, like a real page.
type fakePage struct {
	uri        string
	pageNumber int
	totalPages int
	assets     []string
	config     map[string]any

	extra    map[string]any
	remap    string
	data     map[string]any
	unloaded int
}

func newFakePage(uri string, totalPages int) *fakePage {
	return &fakePage{uri: uri, pageNumber: 1, totalPages: totalPages, config: map[string]any{}}
}

func (p *fakePage) URI() string     { return p.uri }
func (p *fakePage) PageNumber() int { return p.pageNumber }

func (p *fakePage) SetPageNumber(n int) {
	p.pageNumber = n
	p.data = nil
}

func (p *fakePage) SetExtraPageData(data map[string]any) {
	p.extra = data
	p.data = nil
}

func (p *fakePage) SetAssetURLBaseRemap(pattern string) {
	p.remap = pattern
	p.data = nil
}

func (p *fakePage) ConfigValue(key string) (any, bool) {
	v, ok := p.config[key]
	return v, ok
}

func (p *fakePage) PageData() (map[string]any, error) {
	if p.data != nil {
		return p.data, nil
	}
	data := map[string]any{}
	for k, v := range p.extra {
		data[k] = v
	}
	data["pagination"] = &fakePagination{pageNumber: p.pageNumber, totalPages: p.totalPages}
	data["asset"] = fakeAssets(p.assets)
	p.data = data
	return data, nil
}

func (p *fakePage) Unload() {
	p.unloaded++
	p.data = nil
}

type fakeStore struct {
	values map[string]any
	sets   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]any{"site/root": "/"}}
}

func (s *fakeStore) GetValue(key string) (any, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("unknown key %q", key)
	}
	return v, nil
}

func (s *fakeStore) GetValueUnchecked(key string) any { return s.values[key] }

func (s *fakeStore) SetValue(key string, value any) error {
	if key == "site/root" {
		root, _ := value.(string)
		if !strings.HasSuffix(root, "/") {
			return fmt.Errorf("site root %q must end with a slash", root)
		}
	}
	s.values[key] = value
	s.sets = append(s.sets, fmt.Sprintf("%s=%v", key, value))
	return nil
}

func (s *fakeStore) DeleteValue(key string) {
	delete(s.values, key)
	s.sets = append(s.sets, "-"+key)
}

type fakeRepository struct {
	pages   []*fakePage
	unloads int
}

func (r *fakeRepository) UnloadAll() {
	r.unloads++
	for _, p := range r.pages {
		p.Unload()
	}
}

type fakeEnv struct {
	store  *fakeStore
	repo   *fakeRepository
	resets int
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{store: newFakeStore(), repo: &fakeRepository{}}
}

func (e *fakeEnv) Config() ConfigStore   { return e.store }
func (e *fakeEnv) Pages() PageRepository { return e.repo }
func (e *fakeEnv) ResetURLDecorators()   { e.resets++ }

// fakeRenderer renders "<uri> p<n> root=<site/root>" and touches the
// paginator when paginate is set.
type fakeRenderer struct {
	env      *fakeEnv
	paginate bool
	failOn   int
	calls    int
	extras   []any
}

func (r *fakeRenderer) Render(_ context.Context, p Page) (string, error) {
	r.calls++
	if r.failOn > 0 && p.PageNumber() == r.failOn {
		return "", fmt.Errorf("template exploded")
	}
	data, err := p.PageData()
	if err != nil {
		return "", err
	}
	r.extras = append(r.extras, data["extra"])
	if r.paginate {
		data["pagination"].(*fakePagination).accessed = true
	}
	return fmt.Sprintf("%s p%d root=%v", p.URI(), p.PageNumber(), r.env.store.values["site/root"]), nil
}
