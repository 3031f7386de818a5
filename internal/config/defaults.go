package config

import (
	"strings"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// SiteDefaultApplier handles site defaults.
type SiteDefaultApplier struct{}

func (SiteDefaultApplier) Domain() string { return "site" }

func (SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Untitled Site"
	}
	if cfg.Site.Root == "" {
		cfg.Site.Root = "/"
	}
	// Root always ends with exactly one slash so templates can append URIs.
	cfg.Site.Root = strings.TrimRight(cfg.Site.Root, "/") + "/"
	if cfg.Site.PostsPerPage == 0 {
		cfg.Site.PostsPerPage = 5
	}
	if cfg.Site.DefaultLayout == "" {
		cfg.Site.DefaultLayout = "default"
	}
	return nil
}

// BakerDefaultApplier handles baker defaults.
type BakerDefaultApplier struct{}

func (BakerDefaultApplier) Domain() string { return "baker" }

func (BakerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Baker.OutputDir == "" {
		cfg.Baker.OutputDir = "_counter"
	}
	return nil
}

// ContentDefaultApplier handles content directory defaults.
type ContentDefaultApplier struct{}

func (ContentDefaultApplier) Domain() string { return "content" }

func (ContentDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Content.PagesDir == "" {
		cfg.Content.PagesDir = "pages"
	}
	if cfg.Content.PostsDir == "" {
		cfg.Content.PostsDir = "posts"
	}
	if cfg.Content.LayoutsDir == "" {
		cfg.Content.LayoutsDir = "layouts"
	}
	return nil
}

// WatchDefaultApplier handles watch defaults. A zero interval disables periodic rebakes.
type WatchDefaultApplier struct{}

func (WatchDefaultApplier) Domain() string { return "watch" }

func (WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	return nil
}

var defaultAppliers = []DefaultApplier{
	SiteDefaultApplier{},
	BakerDefaultApplier{},
	ContentDefaultApplier{},
	WatchDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
