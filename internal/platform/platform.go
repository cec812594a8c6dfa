package platform

import (
	"context"
	"errors"

	"github.com/mj1618/page-turner/internal/model"
)

// ErrDetached is returned when an element id no longer refers to a node
// attached to the document.
var ErrDetached = errors.New("element is detached from the document")

// Document reads the live page.
type Document interface {
	// Query returns every element matching q, measured at call time, in
	// document order.
	Query(ctx context.Context, q Query) ([]model.Element, error)

	// Viewport returns the current viewport size.
	Viewport(ctx context.Context) (model.Viewport, error)
}

// Activator acts on elements previously returned by a Document.
type Activator interface {
	// Inspect re-measures a previously returned element. Returns ErrDetached
	// if the node is gone.
	Inspect(ctx context.Context, id int) (model.Element, error)

	// Focus gives the element input focus.
	Focus(ctx context.Context, id int) error

	// Click invokes the element's native activation behavior.
	Click(ctx context.Context, id int) error

	// Dispatch fires a synthetic mouse event of the given type that bubbles
	// and is cancelable.
	Dispatch(ctx context.Context, id int, event string) error
}

// Navigator loads pages.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Screenshotter captures the viewport.
type Screenshotter interface {
	// Screenshot returns a PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)
}
