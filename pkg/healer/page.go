package healer

import (
	"context"
	"time"

	"graft/internal/browser"
	"graft/internal/heal"
	"graft/internal/locator"
)

// Page wraps a browser page with healing behavior. It expects the sequential
// use a single test makes of its page; concurrent actions on one Page are
// not supported.
type Page struct {
	page          browser.Page
	engine        *heal.Engine
	testName      string
	actionTimeout time.Duration
}

// Raw returns the wrapped page for operations the wrapper does not cover.
func (p *Page) Raw() browser.Page { return p.page }

func (p *Page) resolve(expr string) (browser.Element, error) {
	loc, err := locator.Parse(expr)
	if err != nil {
		return nil, err
	}
	return p.page.Resolve(loc)
}

// failFast caps the direct attempt. The caller's own timeout applies only to
// the replay after healing.
func (p *Page) failFast(o browser.ActionOptions) browser.ActionOptions {
	o.Timeout = p.actionTimeout
	return o
}

func callerOptions(opts []browser.ActionOptions) browser.ActionOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return browser.ActionOptions{}
}

// Click clicks the element matched by expr, healing the locator if the
// direct attempt fails. On healing failure the direct attempt's error is
// returned unchanged.
func (p *Page) Click(expr string, opts ...browser.ActionOptions) error {
	o := callerOptions(opts)

	el, directErr := p.resolve(expr)
	if directErr == nil {
		if directErr = el.Click(p.failFast(o)); directErr == nil {
			return nil
		}
	}

	res := p.engine.Heal(context.Background(), p.page, p.testName, expr, directErr)
	if !res.Healed {
		return directErr
	}
	return res.Element.Click(o)
}

// Fill fills the element matched by expr with value, healing the locator if
// the direct attempt fails. The replay carries the caller's value and
// options unchanged.
func (p *Page) Fill(expr, value string, opts ...browser.ActionOptions) error {
	o := callerOptions(opts)

	el, directErr := p.resolve(expr)
	if directErr == nil {
		if directErr = el.Fill(value, p.failFast(o)); directErr == nil {
			return nil
		}
	}

	res := p.engine.Heal(context.Background(), p.page, p.testName, expr, directErr)
	if !res.Healed {
		return directErr
	}
	return res.Element.Fill(value, o)
}

// WaitFor waits until the element matched by expr is visible. The direct
// attempt is bounded by the fail-fast timeout; after healing the caller's
// timeout applies (zero means the driver default).
func (p *Page) WaitFor(expr string, opts ...browser.ActionOptions) error {
	o := callerOptions(opts)

	el, directErr := p.resolve(expr)
	if directErr == nil {
		if directErr = el.WaitVisible(p.actionTimeout); directErr == nil {
			return nil
		}
	}

	res := p.engine.Heal(context.Background(), p.page, p.testName, expr, directErr)
	if !res.Healed {
		return directErr
	}
	return res.Element.WaitVisible(o.Timeout)
}

// IsVisible reports whether the element matched by expr is visible, waiting
// up to the fail-fast timeout for it to appear. A locator that stays
// invisible after healing reports false with no error, matching the
// underlying driver's query contract; a locator expression that does not
// resolve at all still surfaces its error.
func (p *Page) IsVisible(expr string) (bool, error) {
	var cause error
	el, err := p.resolve(expr)
	if err != nil {
		cause = err
	} else if waitErr := el.WaitVisible(p.actionTimeout); waitErr != nil {
		cause = waitErr
		err = nil
	} else {
		return el.IsVisible()
	}

	if res := p.engine.Heal(context.Background(), p.page, p.testName, expr, cause); res.Healed {
		return res.Element.IsVisible()
	}
	return false, err
}
