package suggest

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	scriptRe  = regexp.MustCompile(`(?s)<script[^>]*>.*?</script>`)
	styleRe   = regexp.MustCompile(`(?s)<style[^>]*>.*?</style>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// trimMarkup reduces a serialized DOM to something a model can digest.
// Scripts, styles and comments carry no locator signal and dominate the
// byte count on real pages.
func trimMarkup(markup string, maxBytes int) string {
	markup = scriptRe.ReplaceAllString(markup, "")
	markup = styleRe.ReplaceAllString(markup, "")
	markup = commentRe.ReplaceAllString(markup, "")
	markup = strings.Join(strings.Fields(markup), " ")
	if maxBytes > 0 && len(markup) > maxBytes {
		markup = markup[:maxBytes] + "..."
	}
	return markup
}

const candidateContract = `Respond with ONLY a JSON array of locator strings, best candidate first.
No markdown, no code fences, no explanation — just the raw JSON array.

Each candidate must use exactly one of these forms:
  byRole('button', {name: 'Submit'})
  byText('Sign in')
  byLabel('Email address')
  byTestId('login-submit')
  bySelector('#login form button.primary')
or a bare CSS/XPath selector string such as "#submit" or "//button[@id='go']".

Suggest up to 5 candidates. Prefer stable attributes (test ids, roles,
labels) over positional or style-dependent selectors.`

const markupPromptHeader = `A UI test locator no longer matches anything on the page.

FAILED LOCATOR: %s
ERROR: %s

CURRENT PAGE MARKUP:
%s

Find the element the failed locator most plausibly referred to and propose
replacement locators for it.

`

const imagePromptHeader = `A UI test locator no longer matches anything on the page. The page
markup did not yield a working replacement, so a screenshot of the current
page is attached.

FAILED LOCATOR: %s
ERROR: %s

Identify the control the failed locator most plausibly referred to from the
screenshot and propose replacement locators for it.

`

func markupPrompt(originalLocator, errorMessage, markup string, maxMarkupBytes int) string {
	return fmt.Sprintf(markupPromptHeader, originalLocator, errorMessage, trimMarkup(markup, maxMarkupBytes)) + candidateContract
}

func imagePrompt(originalLocator, errorMessage string) string {
	return fmt.Sprintf(imagePromptHeader, originalLocator, errorMessage) + candidateContract
}
