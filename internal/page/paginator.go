package page

import (
	"fmt"
	"time"
)

// Paginator pages through the site's items for one page number of one page.
//
// The template-facing methods mark the paginator as accessed. The baker only
// keeps paginating a page whose rendering actually used the paginator, so
// WasPaginationDataAccessed and HasMorePages deliberately leave the flag alone.
type Paginator struct {
	page       *Page
	pageNumber int
	accessed   bool
}

func newPaginator(p *Page) *Paginator {
	return &Paginator{page: p, pageNumber: p.pageNumber}
}

// WasPaginationDataAccessed reports whether a template used the paginator.
func (pg *Paginator) WasPaginationDataAccessed() bool { return pg.accessed }

// HasMorePages reports whether items remain after the current page.
func (pg *Paginator) HasMorePages() bool { return pg.pageNumber < pg.totalPages() }

// Items returns the items shown on the current page.
func (pg *Paginator) Items() ([]map[string]any, error) {
	pg.accessed = true
	all := pg.items()
	per := pg.perPage()
	start := (pg.pageNumber - 1) * per
	if start >= len(all) {
		return []map[string]any{}, nil
	}
	end := min(start+per, len(all))

	out := make([]map[string]any, 0, end-start)
	for _, item := range all[start:end] {
		m, err := pg.itemData(item)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Posts is an alias of Items for blog-style templates.
func (pg *Paginator) Posts() ([]map[string]any, error) { return pg.Items() }

func (pg *Paginator) CurrentPage() int {
	pg.accessed = true
	return pg.pageNumber
}

func (pg *Paginator) TotalPages() int {
	pg.accessed = true
	return pg.totalPages()
}

func (pg *Paginator) TotalItems() int {
	pg.accessed = true
	return len(pg.items())
}

func (pg *Paginator) HasNext() bool {
	pg.accessed = true
	return pg.HasMorePages()
}

func (pg *Paginator) HasPrev() bool {
	pg.accessed = true
	return pg.pageNumber > 1
}

// NextPage returns the next page number, or 0 on the last page.
func (pg *Paginator) NextPage() int {
	if !pg.HasNext() {
		return 0
	}
	return pg.pageNumber + 1
}

// PrevPage returns the previous page number, or 0 on the first page.
func (pg *Paginator) PrevPage() int {
	if !pg.HasPrev() {
		return 0
	}
	return pg.pageNumber - 1
}

// NextURL returns the URL of the next page, or "" on the last page.
func (pg *Paginator) NextURL() string {
	n := pg.NextPage()
	if n == 0 {
		return ""
	}
	return pg.page.url(pg.page.uri, n, pg.page.PrettyURLs())
}

// PrevURL returns the URL of the previous page, or "" on the first page.
func (pg *Paginator) PrevURL() string {
	n := pg.PrevPage()
	if n == 0 {
		return ""
	}
	return pg.page.url(pg.page.uri, n, pg.page.PrettyURLs())
}

func (pg *Paginator) items() []*Page {
	if pg.page.hooks.Items == nil {
		return nil
	}
	return pg.page.hooks.Items()
}

// perPage prefers the page's `posts_per_page` header over the site value.
func (pg *Paginator) perPage() int {
	if v, ok := pg.page.ConfigValue("posts_per_page"); ok {
		if n, ok := v.(int); ok && n > 0 {
			return n
		}
	}
	if pg.page.hooks.PostsPerPage != nil {
		if n := pg.page.hooks.PostsPerPage(); n > 0 {
			return n
		}
	}
	return 5
}

func (pg *Paginator) totalPages() int {
	n := len(pg.items())
	per := pg.perPage()
	if n == 0 {
		return 1
	}
	return (n + per - 1) / per
}

func (pg *Paginator) itemData(item *Page) (map[string]any, error) {
	fields, err := item.Config()
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		m[k] = v
	}
	m["uri"] = item.URI()
	m["title"] = item.Title()
	m["url"] = pg.page.url(item.URI(), 1, item.PrettyURLs())
	if d, ok := ItemDate(item); ok {
		m["date"] = d
	}
	if pg.page.hooks.ItemContent != nil {
		content, err := pg.page.hooks.ItemContent(item)
		if err != nil {
			return nil, fmt.Errorf("render item %q: %w", item.URI(), err)
		}
		m["content"] = content
	}
	return m, nil
}

// ItemDate returns the `date` header of an item page. YAML timestamps and
// "2006-01-02" strings are accepted.
func ItemDate(p *Page) (time.Time, bool) {
	v, ok := p.ConfigValue("date")
	if !ok {
		return time.Time{}, false
	}
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
