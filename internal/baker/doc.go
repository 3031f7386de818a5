// Package baker writes pages to the output directory.
//
// A PageBaker bakes one page per call. Each pass renders the page at its
// current page number, writes the output to the path derived by ResolvePath,
// copies the page's assets on the first pass, and moves on to the next page
// number while the rendering used the page's paginator and more pages remain.
//
// With portable URLs enabled every pass runs inside a PortableURLScope, which
// temporarily rewrites `site/root` to a path relative to the output file and
// invalidates everything that cached the old root. The previous root is
// restored before the pass returns, whatever happens during rendering.
package baker
