// Package pw adapts a Playwright page to the browser capability the healing
// engine consumes. Locator construction is lazy on the Playwright side, so
// Resolve never fails; a bad expression surfaces when the element is acted
// on or waited for.
package pw

import (
	"time"

	"github.com/playwright-community/playwright-go"

	"graft/internal/browser"
	"graft/internal/locator"
)

// Page wraps a playwright.Page as a browser.Page.
type Page struct {
	page playwright.Page
}

// Wrap adapts a Playwright page for the healing engine.
func Wrap(p playwright.Page) *Page {
	return &Page{page: p}
}

// Resolve builds the Playwright locator matching the parsed expression.
func (p *Page) Resolve(loc locator.Locator) (browser.Element, error) {
	return &element{loc: p.locatorFor(loc)}, nil
}

func (p *Page) locatorFor(loc locator.Locator) playwright.Locator {
	switch loc.Kind {
	case locator.KindRole:
		opts := playwright.PageGetByRoleOptions{}
		if loc.Name != "" {
			opts.Name = loc.Name
		}
		if loc.Exact {
			opts.Exact = playwright.Bool(true)
		}
		return p.page.GetByRole(playwright.AriaRole(loc.Value), opts)
	case locator.KindText:
		opts := playwright.PageGetByTextOptions{}
		if loc.Exact {
			opts.Exact = playwright.Bool(true)
		}
		return p.page.GetByText(loc.Value, opts)
	case locator.KindLabel:
		opts := playwright.PageGetByLabelOptions{}
		if loc.Exact {
			opts.Exact = playwright.Bool(true)
		}
		return p.page.GetByLabel(loc.Value, opts)
	case locator.KindTestID:
		return p.page.GetByTestId(loc.Value)
	default:
		return p.page.Locator(loc.Value)
	}
}

// Content returns the serialized DOM of the page.
func (p *Page) Content() (string, error) {
	return p.page.Content()
}

// Screenshot captures the current viewport as PNG bytes.
func (p *Page) Screenshot() ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{})
}

type element struct {
	loc playwright.Locator
}

func (e *element) Click(opts browser.ActionOptions) error {
	o := playwright.LocatorClickOptions{}
	if opts.Timeout > 0 {
		o.Timeout = playwright.Float(float64(opts.Timeout.Milliseconds()))
	}
	if opts.Force {
		o.Force = playwright.Bool(true)
	}
	return e.loc.Click(o)
}

func (e *element) Fill(value string, opts browser.ActionOptions) error {
	o := playwright.LocatorFillOptions{}
	if opts.Timeout > 0 {
		o.Timeout = playwright.Float(float64(opts.Timeout.Milliseconds()))
	}
	if opts.Force {
		o.Force = playwright.Bool(true)
	}
	return e.loc.Fill(value, o)
}

func (e *element) WaitVisible(timeout time.Duration) error {
	o := playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}
	if timeout > 0 {
		o.Timeout = playwright.Float(float64(timeout.Milliseconds()))
	}
	return e.loc.WaitFor(o)
}

func (e *element) IsVisible() (bool, error) {
	return e.loc.IsVisible()
}
