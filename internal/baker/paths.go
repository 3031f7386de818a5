package baker

import (
	"path"
	"strconv"
	"strings"
)

// IndexDocument is the file name pretty URLs bake to.
const IndexDocument = "index.html"

const defaultExtension = "html"

// NormalizeBaseDir converts dir to forward slashes and makes it end with exactly one slash.
func NormalizeBaseDir(dir string) string {
	return strings.TrimRight(strings.ReplaceAll(dir, `\`, "/"), "/") + "/"
}

// ResolvePath returns the output file for uri at pageNumber under baseDir.
//
// Pretty URLs bake to `uri/index.html` and `uri/<n>/index.html`; the site root
// bakes to `index.html` and `<n>/index.html`. Otherwise pages bake to
// `uri.html` and `uri/<n>.html`, keeping the URI's own extension when it has
// one (`feed.xml`, `feed/2.xml`), with `index` standing in for the empty URI.
func ResolvePath(baseDir, uri string, pageNumber int, prettyURLs bool) string {
	return NormalizeBaseDir(baseDir) + RelativePath(uri, pageNumber, prettyURLs)
}

// RelativePath is ResolvePath without the base directory.
func RelativePath(uri string, pageNumber int, prettyURLs bool) string {
	uri = strings.Trim(strings.ReplaceAll(uri, `\`, "/"), "/")
	isSubPage := pageNumber > 1

	var b strings.Builder
	if prettyURLs {
		if uri != "" {
			b.WriteString(uri)
			b.WriteByte('/')
		}
		if isSubPage {
			b.WriteString(strconv.Itoa(pageNumber))
			b.WriteByte('/')
		}
		b.WriteString(IndexDocument)
		return b.String()
	}

	name, ext := splitExtension(uri)
	if uri == "" {
		name = "index"
	}
	b.WriteString(name)
	if isSubPage {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(pageNumber))
	}
	b.WriteByte('.')
	b.WriteString(ext)
	return b.String()
}

// splitExtension strips a trailing ".ext" from the URI's last segment. URIs
// without one keep their name and get the default extension.
func splitExtension(uri string) (name, ext string) {
	e := path.Ext(uri)
	if len(e) <= 1 {
		return uri, defaultExtension
	}
	return strings.TrimSuffix(uri, e), e[1:]
}
