package linkcheck

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
)

// BrokenLink is an internal link whose target is missing from the output.
type BrokenLink struct {
	// Page is the baked file containing the link.
	Page string
	Link Link
	// Target is the output-relative path the link resolved to.
	Target string
}

// Report is the result of CheckTree.
type Report struct {
	Pages   int
	Checked int
	Broken  []BrokenLink
}

// OK reports whether no broken links were found.
func (r *Report) OK() bool { return len(r.Broken) == 0 }

// Err returns a links error summarizing the broken links, or nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	first := r.Broken[0]
	return errors.LinksError("broken internal links").
		WithContext("count", len(r.Broken)).
		WithContext("page", first.Page).
		WithContext("url", first.Link.URL).
		Build()
}

// Checker resolves links against one output directory.
type Checker struct {
	outputDir string
	siteRoot  string
}

// NewChecker returns a checker for files baked under outputDir with the given
// site root. Root-relative links starting with siteRoot are resolved against
// outputDir; relative links against the linking file.
func NewChecker(outputDir, siteRoot string) *Checker {
	if siteRoot == "" {
		siteRoot = "/"
	}
	return &Checker{outputDir: filepath.Clean(outputDir), siteRoot: siteRoot}
}

// CheckTree checks every HTML file in files. Non-HTML files are skipped.
func (c *Checker) CheckTree(ctx context.Context, files []string) (*Report, error) {
	report := &Report{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !isHTML(file) {
			continue
		}
		links, err := ExtractLinks(filepath.FromSlash(file))
		if err != nil {
			return report, err
		}
		report.Pages++
		for _, link := range links {
			target, ok := c.resolve(file, link.URL)
			if !ok {
				continue
			}
			report.Checked++
			if !c.exists(target) {
				report.Broken = append(report.Broken, BrokenLink{Page: file, Link: link, Target: target})
			}
		}
	}
	return report, nil
}

// resolve maps a link to an output-relative slash path. Links that are not
// checked (external, anchors, special schemes) return false.
func (c *Checker) resolve(file, link string) (string, bool) {
	if !shouldVerify(link) {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}

	p := u.Path
	if strings.HasPrefix(p, "/") {
		rel, ok := strings.CutPrefix(p, c.siteRoot)
		if !ok {
			rel, ok = strings.CutPrefix(p+"/", c.siteRoot)
		}
		if !ok {
			// Outside the site root; report it against the raw path.
			return strings.TrimPrefix(p, "/"), true
		}
		return path.Clean("/" + rel)[1:], true
	}

	fileRel, err := filepath.Rel(c.outputDir, filepath.Clean(filepath.FromSlash(file)))
	if err != nil {
		return "", false
	}
	dir := path.Dir(filepath.ToSlash(fileRel))
	return path.Clean(path.Join(dir, p)), true
}

// exists accepts files, directories holding an index.html, and extensionless
// paths baked as ".html" files.
func (c *Checker) exists(target string) bool {
	if target == ".." || strings.HasPrefix(target, "../") {
		return false
	}
	full := filepath.Join(c.outputDir, filepath.FromSlash(target))
	info, err := os.Stat(full)
	if err == nil {
		if !info.IsDir() {
			return true
		}
		_, err = os.Stat(filepath.Join(full, "index.html"))
		return err == nil
	}
	if path.Ext(target) == "" {
		_, err = os.Stat(full + ".html")
		return err == nil
	}
	return false
}

func shouldVerify(link string) bool {
	if link == "" || strings.HasPrefix(link, "#") {
		return false
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(link, prefix) {
			return false
		}
	}
	return true
}

func isHTML(file string) bool {
	switch strings.ToLower(path.Ext(file)) {
	case ".html", ".htm":
		return true
	}
	return false
}
