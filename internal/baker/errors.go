package baker

import (
	"fmt"

	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
)

// RenderError wraps a failure reported by the Renderer.
type RenderError struct {
	URI        string
	PageNumber int
	Err        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render '%s' (p%d): %v", e.URI, e.PageNumber, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Category implements errors.Categorized.
func (e *RenderError) Category() errors.ErrorCategory { return errors.CategoryRender }

// CopyError reports an asset that could not be copied.
type CopyError struct {
	Source      string
	Destination string
	Err         error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("can't copy '%s' to '%s': %v", e.Source, e.Destination, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// Category implements errors.Categorized.
func (e *CopyError) Category() errors.ErrorCategory { return errors.CategoryAsset }

// BakeError is returned by PageBaker.Bake for any failure during a pass. It
// names the page and the page number that was being baked.
type BakeError struct {
	URI        string
	PageNumber int
	Err        error
}

func (e *BakeError) Error() string {
	return fmt.Sprintf("error baking page '%s' (p%d): %v", e.URI, e.PageNumber, e.Err)
}

func (e *BakeError) Unwrap() error { return e.Err }

// Category implements errors.Categorized.
func (e *BakeError) Category() errors.ErrorCategory { return errors.CategoryBake }
