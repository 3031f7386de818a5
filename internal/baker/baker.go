package baker

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebaker/internal/logfields"
)

// AssetURLBaseRemap points asset URLs at the copies next to the baked page.
const AssetURLBaseRemap = "%site_root%%uri%"

const (
	keyPrettyURLs   = "pretty_urls"
	keySitePretty   = "site/pretty_urls"
	keyPortableURLs = "baker/portable_urls"
)

// Options tune a PageBaker.
type Options struct {
	// CopyAssets copies each page's assets next to its first baked file.
	CopyAssets bool
	Logger     *slog.Logger
}

// Result describes one Bake call.
type Result struct {
	URI string
	// Files lists the baked files in the order they were written.
	Files []string
	// PaginationDataAccessed is true if any pass used the paginator.
	PaginationDataAccessed bool
}

// PageCount returns the number of baked files.
func (r *Result) PageCount() int { return len(r.Files) }

// PageBaker bakes pages into one output directory. A PageBaker is not safe
// for concurrent use; bakes share the environment's configuration.
type PageBaker struct {
	bakeDir  string
	env      Environment
	renderer Renderer
	opts     Options
	logger   *slog.Logger

	last *Result
}

// NewPageBaker returns a baker writing under bakeDir.
func NewPageBaker(bakeDir string, env Environment, renderer Renderer, opts Options) *PageBaker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PageBaker{
		bakeDir:  NormalizeBaseDir(bakeDir),
		env:      env,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
		last:     &Result{},
	}
}

// BakeDir returns the normalized output directory.
func (b *PageBaker) BakeDir() string { return b.bakeDir }

// Bake bakes p starting at its current page number. extraData is merged into
// the page data on every pass. Any failure is returned as a *BakeError; files
// written by earlier passes stay on disk.
func (b *PageBaker) Bake(ctx context.Context, p Page, extraData map[string]any) (*Result, error) {
	d := &driver{
		baker:  b,
		page:   p,
		extra:  extraData,
		result: &Result{URI: p.URI()},
	}
	b.last = d.result

	if err := d.run(ctx); err != nil {
		return d.result, &BakeError{URI: p.URI(), PageNumber: p.PageNumber(), Err: err}
	}
	return d.result, nil
}

// PageCount returns the number of files baked by the last Bake call.
func (b *PageBaker) PageCount() int { return b.last.PageCount() }

// BakedFiles returns the files baked by the last Bake call.
func (b *PageBaker) BakedFiles() []string { return slices.Clone(b.last.Files) }

// WasPaginationDataAccessed reports whether the last Bake call used pagination data.
func (b *PageBaker) WasPaginationDataAccessed() bool { return b.last.PaginationDataAccessed }

func (b *PageBaker) prettyURLs(p Page) bool {
	if v, ok := p.ConfigValue(keyPrettyURLs); ok {
		if pretty, ok := v.(bool); ok {
			return pretty
		}
	}
	pretty, _ := b.env.Config().GetValueUnchecked(keySitePretty).(bool)
	return pretty
}

func (b *PageBaker) portableURLs() bool {
	portable, _ := b.env.Config().GetValueUnchecked(keyPortableURLs).(bool)
	return portable
}

type state int

const (
	stateRendering state = iota
	stateCheckContinue
	stateDone
)

// driver runs the passes of one Bake call.
type driver struct {
	baker  *PageBaker
	page   Page
	extra  map[string]any
	result *Result
}

func (d *driver) run(ctx context.Context) error {
	st := stateRendering
	for st != stateDone {
		switch st {
		case stateRendering:
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.bakeSinglePage(ctx); err != nil {
				return err
			}
			st = stateCheckContinue

		case stateCheckContinue:
			more, err := d.hasMorePages()
			if err != nil {
				return err
			}
			if !more {
				st = stateDone
				continue
			}
			// The new page number drops the page data, so the next pass
			// re-applies the extra data before anything reads it.
			d.page.SetPageNumber(d.page.PageNumber() + 1)
			st = stateRendering
		}
	}
	return nil
}

// hasMorePages asks the pagination state computed by the last render. Pages
// that never touched their paginator are never paginated.
func (d *driver) hasMorePages() (bool, error) {
	pagination, err := d.pagination()
	if err != nil || pagination == nil {
		return false, err
	}
	return pagination.WasPaginationDataAccessed() && pagination.HasMorePages(), nil
}

func (d *driver) pagination() (PaginationState, error) {
	data, err := d.page.PageData()
	if err != nil {
		return nil, err
	}
	pagination, _ := data["pagination"].(PaginationState)
	return pagination, nil
}

func (d *driver) bakeSinglePage(ctx context.Context) error {
	p := d.page
	b := d.baker

	if d.extra != nil {
		p.SetExtraPageData(d.extra)
	}
	if b.opts.CopyAssets {
		p.SetAssetURLBaseRemap(AssetURLBaseRemap)
	}

	pretty := b.prettyURLs(p)
	bakePath := ResolvePath(b.bakeDir, p.URI(), p.PageNumber(), pretty)

	pass := func() error { return d.renderAndWrite(ctx, bakePath, pretty) }
	if b.portableURLs() {
		return NewPortableURLScope(b.env, b.bakeDir).Do(bakePath, pass)
	}
	return pass()
}

func (d *driver) renderAndWrite(ctx context.Context, bakePath string, pretty bool) error {
	p := d.page
	b := d.baker
	pageNumber := p.PageNumber()

	contents, err := b.renderer.Render(ctx, p)
	if err != nil {
		return &RenderError{URI: p.URI(), PageNumber: pageNumber, Err: err}
	}

	data, err := p.PageData()
	if err != nil {
		return err
	}

	if err := writeFile(bakePath, contents); err != nil {
		return err
	}
	d.result.Files = append(d.result.Files, bakePath)
	b.logger.Debug("Baked page",
		logfields.URI(p.URI()),
		logfields.PageNumber(pageNumber),
		logfields.BakePath(bakePath))

	if pageNumber == 1 && b.opts.CopyAssets {
		if assets, ok := data["asset"].(AssetSet); ok {
			paths := assets.AssetPathnames()
			if err := MaterializeAssets(bakePath, pretty, p.URI(), paths); err != nil {
				return err
			}
			if len(paths) > 0 {
				b.logger.Debug("Copied page assets", logfields.URI(p.URI()), logfields.Assets(len(paths)))
			}
		}
	}

	if pagination, ok := data["pagination"].(PaginationState); ok && pagination.WasPaginationDataAccessed() {
		d.result.PaginationDataAccessed = true
	}
	return nil
}

func writeFile(bakePath, contents string) error {
	target := filepath.FromSlash(bakePath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", filepath.Dir(target)).
			Build()
	}
	if err := os.WriteFile(target, []byte(contents), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write baked file").
			WithContext("path", bakePath).
			Build()
	}
	return nil
}
