package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
)

// DefaultFileName is the configuration file looked up in the site directory.
const DefaultFileName = "pagebaker.yaml"

// Config represents the site and baker configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Baker   BakerConfig   `yaml:"baker"`
	Content ContentConfig `yaml:"content"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`

	// siteDir is the directory relative content/output paths resolve against.
	siteDir string
}

// SiteConfig holds the values templates see under `site`.
type SiteConfig struct {
	Title         string `yaml:"title"`
	Root          string `yaml:"root"`
	PrettyURLs    bool   `yaml:"pretty_urls"`
	PostsPerPage  int    `yaml:"posts_per_page"`
	DefaultLayout string `yaml:"default_layout,omitempty"`
}

// BakerConfig controls how pages are written to the output directory.
type BakerConfig struct {
	OutputDir    string `yaml:"output_dir"`
	PortableURLs bool   `yaml:"portable_urls"`
	CopyAssets   bool   `yaml:"copy_assets"`
	CheckLinks   bool   `yaml:"check_links,omitempty"`
	StopOnError  bool   `yaml:"stop_on_error,omitempty"`
	RecordPath   string `yaml:"record_path,omitempty"`
}

// ContentConfig locates the site sources.
type ContentConfig struct {
	PagesDir   string `yaml:"pages_dir"`
	PostsDir   string `yaml:"posts_dir"`
	LayoutsDir string `yaml:"layouts_dir"`
}

// MetricsConfig enables Prometheus export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
	Addr     string `yaml:"addr,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
}

// Load loads configuration from the specified file. Relative paths in the file
// are resolved against the file's directory.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	absDir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve site directory").Build()
	}
	cfg.siteDir = absDir
	return cfg, nil
}

// Parse decodes YAML (after ${VAR} expansion), applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	_ = applyDefaults(cfg)
	return cfg
}

// SiteDir returns the directory the configuration was loaded from ("" when parsed from bytes).
func (c *Config) SiteDir() string { return c.siteDir }

// WithSiteDir returns a copy of c rooted at dir.
func (c *Config) WithSiteDir(dir string) *Config {
	cp := *c
	cp.siteDir = dir
	return &cp
}

// Resolve joins p with the site directory unless p is already absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.siteDir == "" {
		return p
	}
	return filepath.Join(c.siteDir, p)
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Site.Title = "My Site"
	example.Baker.CopyAssets = true

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create config directory").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
