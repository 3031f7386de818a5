package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateSite(); err != nil {
		return err
	}
	if err := cv.validateBaker(); err != nil {
		return err
	}
	return cv.validateContent()
}

func (cv *configurationValidator) validateSite() error {
	site := cv.config.Site
	if err := ValidateSiteRoot(site.Root); err != nil {
		return err
	}
	if site.PostsPerPage < 1 {
		return errors.ConfigError("site.posts_per_page must be positive").
			WithContext("value", site.PostsPerPage).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateBaker() error {
	if strings.TrimSpace(cv.config.Baker.OutputDir) == "" {
		return errors.ConfigError("baker.output_dir is required").Build()
	}
	return nil
}

func (cv *configurationValidator) validateContent() error {
	c := cv.config.Content
	for key, dir := range map[string]string{"pages_dir": c.PagesDir, "posts_dir": c.PostsDir, "layouts_dir": c.LayoutsDir} {
		if strings.HasPrefix(filepath.ToSlash(filepath.Clean(dir)), "../") {
			return errors.ConfigError("content directories must stay inside the site directory").
				WithContext("key", "content."+key).
				WithContext("value", dir).
				Build()
		}
	}
	return nil
}

// ValidateSiteRoot checks a site root value. Roots are either absolute URL paths,
// full URLs, or the relative forms produced for portable URLs ("./", "../../").
func ValidateSiteRoot(root string) error {
	if root == "" {
		return errors.ConfigError("site root must not be empty").WithContext("key", KeySiteRoot).Build()
	}
	if !strings.HasSuffix(root, "/") {
		return errors.ConfigError("site root must end with a slash").
			WithContext("key", KeySiteRoot).
			WithContext("value", root).
			Build()
	}
	return nil
}
