// Package render turns pages into output bytes: the page body is executed as a
// Go template against the page data, markdown bodies are converted with
// goldmark, and the result is wrapped in a layout from the layouts directory.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/pagebaker/internal/baker"
	"git.home.luguber.info/inful/pagebaker/internal/config"
	"git.home.luguber.info/inful/pagebaker/internal/page"
)

// LayoutNone disables the layout for a page.
const LayoutNone = "none"

// Source is what the renderer needs from a page.
type Source interface {
	URI() string
	Format() page.Format
	Body() (string, error)
	PageData() (map[string]any, error)
	ConfigValue(key string) (any, bool)
	CachedContent() (string, bool)
	SetCachedContent(content string)
}

// TemplateRenderer renders pages with html/template layouts.
type TemplateRenderer struct {
	store      *config.Store
	urls       *URLCache
	layoutsDir string
	md         goldmark.Markdown

	// lookup finds the page behind a `pageurl` URI so its own URL style applies.
	lookup func(uri string) (*page.Page, bool)

	mu      sync.Mutex
	layouts map[string]*template.Template
}

// SetPageLookup lets `pageurl` honour the pretty_urls header of the page it
// links to.
func (r *TemplateRenderer) SetPageLookup(lookup func(uri string) (*page.Page, bool)) {
	r.lookup = lookup
}

// NewTemplateRenderer creates a renderer. layoutsDir may not exist; pages then
// render without layouts unless one is explicitly requested.
func NewTemplateRenderer(store *config.Store, urls *URLCache, layoutsDir string) *TemplateRenderer {
	return &TemplateRenderer{
		store:      store,
		urls:       urls,
		layoutsDir: layoutsDir,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		layouts: map[string]*template.Template{},
	}
}

// Render renders p's full output document.
func (r *TemplateRenderer) Render(ctx context.Context, p baker.Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, ok := p.(Source)
	if !ok {
		return "", fmt.Errorf("render: unsupported page type %T", p)
	}

	data, err := src.PageData()
	if err != nil {
		return "", err
	}
	content, err := r.renderBody(src, data)
	if err != nil {
		return "", err
	}
	if src.Format() == page.FormatRaw {
		return content, nil
	}
	return r.applyLayout(src, data, content)
}

// RenderContent renders p's body without a layout, caching the result on the
// page. It backs the `content` field of paginated items.
func (r *TemplateRenderer) RenderContent(p Source) (string, error) {
	if cached, ok := p.CachedContent(); ok {
		return cached, nil
	}
	data, err := p.PageData()
	if err != nil {
		return "", err
	}
	content, err := r.renderBody(p, data)
	if err != nil {
		return "", err
	}
	p.SetCachedContent(content)
	return content, nil
}

func (r *TemplateRenderer) renderBody(src Source, data map[string]any) (string, error) {
	body, err := src.Body()
	if err != nil {
		return "", err
	}
	name := "page:" + src.URI()

	var buf bytes.Buffer
	if src.Format() == page.FormatHTML {
		tpl, err := template.New(name).Funcs(r.funcs()).Parse(body)
		if err != nil {
			return "", fmt.Errorf("parse page template: %w", err)
		}
		if err := tpl.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("execute page template: %w", err)
		}
		return buf.String(), nil
	}

	// Markdown and raw bodies are not HTML yet; escaping them would break
	// markdown syntax such as blockquotes.
	tpl, err := texttemplate.New(name).Funcs(texttemplate.FuncMap(r.funcs())).Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse page template: %w", err)
	}
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute page template: %w", err)
	}
	if src.Format() != page.FormatMarkdown {
		return buf.String(), nil
	}

	var out bytes.Buffer
	if err := r.md.Convert(buf.Bytes(), &out); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return out.String(), nil
}

func (r *TemplateRenderer) applyLayout(src Source, data map[string]any, content string) (string, error) {
	name, explicit := r.layoutName(src)
	if name == LayoutNone {
		return content, nil
	}
	tpl, err := r.layout(name)
	if err != nil {
		return "", err
	}
	if tpl == nil {
		if explicit {
			return "", fmt.Errorf("layout %q not found in %s", name, r.layoutsDir)
		}
		return content, nil
	}

	layoutData := make(map[string]any, len(data)+1)
	for k, v := range data {
		layoutData[k] = v
	}
	layoutData["content"] = template.HTML(content) // #nosec G203 -- content is our own rendered output

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, layoutData); err != nil {
		return "", fmt.Errorf("execute layout %q: %w", name, err)
	}
	return buf.String(), nil
}

func (r *TemplateRenderer) layoutName(src Source) (string, bool) {
	if v, ok := src.ConfigValue("layout"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return r.store.String(config.KeySiteDefaultLayout), false
}

// layout returns the parsed layout, or nil when no such file exists.
func (r *TemplateRenderer) layout(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.layouts[name]; ok {
		return tpl, nil
	}
	if r.layoutsDir == "" || strings.Contains(name, "..") {
		return nil, nil
	}
	file := filepath.Join(r.layoutsDir, name+".html")
	raw, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		if os.IsNotExist(err) {
			r.layouts[name] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("read layout %q: %w", name, err)
	}
	tpl, err := template.New("layout:" + name).Funcs(r.funcs()).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse layout %q: %w", name, err)
	}
	r.layouts[name] = tpl
	return tpl, nil
}

func (r *TemplateRenderer) pageURL(uri string, n int) string {
	d := r.urls.Get()
	if r.lookup != nil {
		if target, ok := r.lookup(strings.Trim(uri, "/")); ok {
			if pretty := target.PrettyURLs(); pretty != nil {
				return d.PageURLStyle(uri, n, *pretty)
			}
		}
	}
	return d.PageURL(uri, n)
}

// funcs resolve the URL decorator at call time so cached templates follow
// site root changes.
func (r *TemplateRenderer) funcs() template.FuncMap {
	return template.FuncMap{
		"url": func(p string) string {
			return r.urls.Get().SiteURL(p)
		},
		"pageurl": func(uri string, n ...int) string {
			num := 1
			if len(n) > 0 {
				num = n[0]
			}
			return r.pageURL(uri, num)
		},
		"safe": func(s string) template.HTML {
			return template.HTML(s) // #nosec G203 -- explicit opt-in by template authors
		},
	}
}
