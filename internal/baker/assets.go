package baker

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// AssetDir returns the directory a page's assets are copied to: the baked
// file's own directory for pretty URLs, otherwise a directory named after the
// baked file next to it (the site root's assets go next to its index file).
func AssetDir(bakePath string, prettyURLs bool, uri string) string {
	bakePath = strings.ReplaceAll(bakePath, `\`, "/")
	dir := path.Dir(bakePath)
	if prettyURLs || uri == "" {
		return dir + "/"
	}
	name := strings.TrimSuffix(path.Base(bakePath), path.Ext(bakePath))
	return dir + "/" + name + "/"
}

// MaterializeAssets copies assetPaths into the asset directory for bakePath,
// creating it on demand. The first failing copy aborts with a *CopyError;
// files copied before it stay on disk.
func MaterializeAssets(bakePath string, prettyURLs bool, uri string, assetPaths []string) error {
	if len(assetPaths) == 0 {
		return nil
	}
	return CopyAssets(AssetDir(bakePath, prettyURLs, uri), assetPaths)
}

// CopyAssets copies assetPaths into dir under their base names, creating dir
// on demand. The first failing copy aborts with a *CopyError.
func CopyAssets(dir string, assetPaths []string) error {
	if len(assetPaths) == 0 {
		return nil
	}
	dir = strings.TrimSuffix(strings.ReplaceAll(dir, `\`, "/"), "/") + "/"
	if err := os.MkdirAll(filepath.FromSlash(dir), 0o755); err != nil {
		return &CopyError{Source: assetPaths[0], Destination: dir, Err: err}
	}
	for _, src := range assetPaths {
		dst := dir + filepath.Base(src)
		if err := copyFile(src, filepath.FromSlash(dst)); err != nil {
			return &CopyError{Source: src, Destination: dst, Err: err}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
