package baker

import (
	"fmt"
	"path"
	"strings"
)

const keySiteRoot = "site/root"

// PortableRoot returns the site root that makes links in bakePath resolve
// relative to baseDir: one "../" per directory between the file and baseDir,
// or "./" when the file sits directly in baseDir.
func PortableRoot(baseDir, bakePath string) string {
	base := NormalizeBaseDir(baseDir)
	rel := strings.TrimPrefix(strings.ReplaceAll(bakePath, `\`, "/"), base)
	dir := path.Dir(rel)
	if dir == "." || dir == "/" || dir == "" {
		return "./"
	}
	depth := strings.Count(strings.Trim(dir, "/"), "/") + 1
	return strings.Repeat("../", depth)
}

// PortableURLScope temporarily points `site/root` at a relative root.
type PortableURLScope struct {
	env     Environment
	baseDir string
}

// NewPortableURLScope returns a scope for pages baked under baseDir.
func NewPortableURLScope(env Environment, baseDir string) *PortableURLScope {
	return &PortableURLScope{env: env, baseDir: NormalizeBaseDir(baseDir)}
}

// SavedRoot is the `site/root` state captured by Enter.
type SavedRoot struct {
	Value any
	// Present is false when the key was unset.
	Present bool
}

// Enter rewrites `site/root` for bakePath, drops the URL decorators and
// unloads every loaded page, since all of them captured the old root. It
// returns the previous root for Exit. Callers must defer Exit.
func (s *PortableURLScope) Enter(bakePath string) (SavedRoot, error) {
	cfg := s.env.Config()
	var saved SavedRoot
	if v, err := cfg.GetValue(keySiteRoot); err == nil {
		saved = SavedRoot{Value: v, Present: true}
	}
	root := PortableRoot(s.baseDir, bakePath)
	if err := cfg.SetValue(keySiteRoot, root); err != nil {
		return saved, fmt.Errorf("set portable site root %q: %w", root, err)
	}
	s.env.ResetURLDecorators()
	s.env.Pages().UnloadAll()
	return saved, nil
}

// Exit puts `site/root` back exactly as Enter found it, deleting the key when
// it was unset, and drops the URL decorators that captured the portable root.
func (s *PortableURLScope) Exit(saved SavedRoot) error {
	cfg := s.env.Config()
	if saved.Present {
		if err := cfg.SetValue(keySiteRoot, saved.Value); err != nil {
			return fmt.Errorf("restore site root: %w", err)
		}
	} else {
		cfg.DeleteValue(keySiteRoot)
	}
	s.env.ResetURLDecorators()
	return nil
}

// Do runs fn inside the scope for bakePath.
func (s *PortableURLScope) Do(bakePath string, fn func() error) (err error) {
	saved, enterErr := s.Enter(bakePath)
	defer func() {
		if exitErr := s.Exit(saved); exitErr != nil && err == nil {
			err = exitErr
		}
	}()
	if enterErr != nil {
		return enterErr
	}
	return fn()
}
