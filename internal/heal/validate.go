// Package heal walks the recovery pipeline for a locator that stopped
// matching: a cached mapping first, then model suggestions derived from the
// page markup, then from a screenshot. Every candidate is re-validated
// against the live page before it is trusted.
package heal

import (
	"time"

	"graft/internal/browser"
	"graft/internal/locator"
)

// DefaultValidateWait bounds how long a candidate's target may take to
// become visible before the candidate is rejected.
const DefaultValidateWait = 2 * time.Second

// validate parses a candidate expression, resolves it against the live page
// and waits for the target to become visible. Any error means the candidate
// failed; the healing loop advances to the next one.
func validate(page browser.Page, candidate string, wait time.Duration) (browser.Element, error) {
	loc, err := locator.Parse(candidate)
	if err != nil {
		return nil, err
	}
	el, err := page.Resolve(loc)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(wait); err != nil {
		return nil, err
	}
	return el, nil
}
