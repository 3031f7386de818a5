package baker

import "context"

// Page is the page being baked.
type Page interface {
	URI() string
	PageNumber() int
	// SetPageNumber moves the page and drops its cached page data.
	SetPageNumber(n int)
	SetExtraPageData(data map[string]any)
	SetAssetURLBaseRemap(pattern string)
	// PageData returns the computed template data; it carries PaginationState
	// under "pagination" and AssetSet under "asset".
	PageData() (map[string]any, error)
	ConfigValue(key string) (any, bool)
}

// PaginationState is the paginator of one computed page data map.
type PaginationState interface {
	WasPaginationDataAccessed() bool
	HasMorePages() bool
}

// AssetSet lists a page's asset source files.
type AssetSet interface {
	AssetPathnames() []string
}

// Renderer renders a page's output document. Rendering populates the page's
// pagination state as a side effect.
type Renderer interface {
	Render(ctx context.Context, p Page) (string, error)
}

// ConfigStore is the run-wide configuration.
type ConfigStore interface {
	GetValue(key string) (any, error)
	GetValueUnchecked(key string) any
	SetValue(key string, value any) error
	DeleteValue(key string)
}

// PageRepository holds the currently loaded pages.
type PageRepository interface {
	UnloadAll()
}

// Environment bundles the site-wide state a bake reads and, for portable URLs,
// temporarily mutates.
type Environment interface {
	Config() ConfigStore
	Pages() PageRepository
	// ResetURLDecorators drops URL formatting state that captured the site root.
	ResetURLDecorators()
}
