// Package scraper defines the boundary between the check cycle and the page
// renderer. Implementations live in subpackages, one per site.
package scraper

import (
	"context"
	"errors"
	"iter"

	"apartment-watcher/models"
)

// ErrRenderTimeout is returned by Session.Render when the page does not
// settle within the configured fetch timeout.
var ErrRenderTimeout = errors.New("render timed out")

// Renderer opens browser sessions. One session is used per cycle.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

// Session is a live browser tab. Close must be called on every exit path and
// is safe to call more than once.
type Session interface {
	// Render navigates to url and returns the rendered document markup.
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// Extractor turns rendered markup into listing records. The returned
// sequence is single-pass.
type Extractor interface {
	Extract(html string) (iter.Seq[models.Listing], error)
}
