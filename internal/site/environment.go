package site

import (
	"git.home.luguber.info/inful/pagebaker/internal/baker"
	"git.home.luguber.info/inful/pagebaker/internal/config"
	"git.home.luguber.info/inful/pagebaker/internal/page"
	"git.home.luguber.info/inful/pagebaker/internal/render"
)

// Environment is the run-wide state shared by every page of a site: the
// configuration store, the page repository and the cached URL decorator.
type Environment struct {
	store *config.Store
	pages *page.Repository
	urls  *render.URLCache
}

// NewEnvironment returns an environment backed by store.
func NewEnvironment(store *config.Store) *Environment {
	return &Environment{
		store: store,
		pages: page.NewRepository(),
		urls:  render.NewURLCache(store),
	}
}

// Config implements baker.Environment.
func (e *Environment) Config() baker.ConfigStore { return e.store }

// Pages implements baker.Environment.
func (e *Environment) Pages() baker.PageRepository { return e.pages }

// ResetURLDecorators implements baker.Environment.
func (e *Environment) ResetURLDecorators() { e.urls.Reset() }

func (e *Environment) Store() *config.Store         { return e.store }
func (e *Environment) Repository() *page.Repository { return e.pages }
func (e *Environment) URLs() *render.URLCache       { return e.urls }
