// Package browser defines the driver-facing capability consumed by the
// healing pipeline. The playwright adapter in adapters/pw implements it;
// tests substitute in-memory fakes.
package browser

import (
	"time"

	"graft/internal/locator"
)

// Page is one live browser page.
type Page interface {
	// Resolve dispatches a parsed locator to the driver's constructor for
	// that form. Resolution is lazy in most drivers; errors usually
	// surface from the element operation that follows.
	Resolve(loc locator.Locator) (Element, error)

	// Content returns the full serialized DOM of the page.
	Content() (string, error)

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot() ([]byte, error)
}

// Element is a handle to a located element.
type Element interface {
	Click(opts ActionOptions) error
	Fill(value string, opts ActionOptions) error
	WaitVisible(timeout time.Duration) error
	IsVisible() (bool, error)
}

// ActionOptions carries the per-call knobs the wrapper forwards to the
// driver. A zero Timeout means the driver's own default.
type ActionOptions struct {
	Timeout time.Duration
	Force   bool
}
