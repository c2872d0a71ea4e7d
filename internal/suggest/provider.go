// Package suggest produces replacement locator candidates for a broken
// locator by asking a language model to inspect the live page. Two inputs
// are supported: the serialized page markup and a PNG screenshot for
// vision-capable models. Candidates come back as an ordered list of locator
// expressions; the caller decides which, if any, actually resolve.
package suggest

import "context"

// Provider proposes replacement locators for one that stopped matching.
// Implementations must tolerate sloppy model output: a response that does
// not contain a JSON string array yields an empty list, never an error.
// An error return is reserved for transport-level failures.
type Provider interface {
	// SuggestFromMarkup proposes candidates from the serialized page DOM.
	SuggestFromMarkup(ctx context.Context, originalLocator, errorMessage, markup string) ([]string, error)

	// SuggestFromImage proposes candidates from a PNG screenshot of the page.
	SuggestFromImage(ctx context.Context, originalLocator, errorMessage string, screenshot []byte) ([]string, error)
}
