package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
)

// Well-known store keys.
const (
	KeySiteTitle         = "site/title"
	KeySiteRoot          = "site/root"
	KeySitePrettyURLs    = "site/pretty_urls"
	KeySitePostsPerPage  = "site/posts_per_page"
	KeySiteDefaultLayout = "site/default_layout"
	KeyBakerOutputDir    = "baker/output_dir"
	KeyBakerPortableURLs = "baker/portable_urls"
	KeyBakerCopyAssets   = "baker/copy_assets"
)

// ErrUnknownKey is returned by GetValue for keys the store does not hold.
var ErrUnknownKey = errors.NewError(errors.CategoryConfig, "unknown configuration key").Build()

// ChangeFunc observes successful SetValue calls.
type ChangeFunc func(key string, value any)

// Store is the run-wide key-value view of the configuration. Keys are
// "section/name" paths. Values written with SetValue are validated first.
type Store struct {
	mu        sync.RWMutex
	values    map[string]any
	observers []ChangeFunc
}

// NewStore flattens cfg into a Store.
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = Default()
	}
	return &Store{values: map[string]any{
		KeySiteTitle:         cfg.Site.Title,
		KeySiteRoot:          cfg.Site.Root,
		KeySitePrettyURLs:    cfg.Site.PrettyURLs,
		KeySitePostsPerPage:  cfg.Site.PostsPerPage,
		KeySiteDefaultLayout: cfg.Site.DefaultLayout,
		KeyBakerOutputDir:    cfg.Baker.OutputDir,
		KeyBakerPortableURLs: cfg.Baker.PortableURLs,
		KeyBakerCopyAssets:   cfg.Baker.CopyAssets,
	}}
}

// GetValue returns the value for key or an ErrUnknownKey error.
func (s *Store) GetValue(key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return v, nil
}

// GetValueUnchecked returns the value for key, or nil when absent.
func (s *Store) GetValueUnchecked(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// SetValue validates and stores value under key, then notifies observers.
func (s *Store) SetValue(key string, value any) error {
	if err := validateValue(key, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = value
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(key, value)
	}
	return nil
}

// DeleteValue removes key, then notifies observers with a nil value. Deleting
// an absent key is a no-op.
func (s *Store) DeleteValue(key string) {
	s.mu.Lock()
	_, ok := s.values[key]
	delete(s.values, key)
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	if !ok {
		return
	}
	for _, fn := range observers {
		fn(key, nil)
	}
}

// OnChange registers fn to be called after every successful SetValue and
// every DeleteValue that removed a key.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Bool returns the boolean value at key (false when absent or not a bool).
func (s *Store) Bool(key string) bool {
	b, _ := s.GetValueUnchecked(key).(bool)
	return b
}

// String returns the string value at key ("" when absent or not a string).
func (s *Store) String(key string) string {
	str, _ := s.GetValueUnchecked(key).(string)
	return str
}

// Int returns the integer value at key (0 when absent or not an int).
func (s *Store) Int(key string) int {
	n, _ := s.GetValueUnchecked(key).(int)
	return n
}

// Section returns the values under "section/" keyed by their name, for templates.
func (s *Store) Section(section string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := section + "/"
	out := make(map[string]any)
	for k, v := range s.values {
		if name, ok := strings.CutPrefix(k, prefix); ok {
			out[name] = v
		}
	}
	return out
}

// Snapshot returns a copy of every key and value.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

func validateValue(key string, value any) error {
	switch key {
	case KeySiteRoot:
		root, ok := value.(string)
		if !ok {
			return errors.ConfigError("site root must be a string").WithContext("key", key).Build()
		}
		return ValidateSiteRoot(root)
	case KeySitePrettyURLs, KeyBakerPortableURLs, KeyBakerCopyAssets:
		if _, ok := value.(bool); !ok {
			return errors.ConfigError("value must be a boolean").WithContext("key", key).Build()
		}
	case KeySitePostsPerPage:
		if n, ok := value.(int); !ok || n < 1 {
			return errors.ConfigError("value must be a positive integer").WithContext("key", key).Build()
		}
	}
	return nil
}
