package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/linkedin-scraper/pkg/browser"
	"github.com/linkedin-scraper/pkg/logger"
)

// ErrNavigate marks a step that could not even load its page.
var ErrNavigate = errors.New("navigation failed")

// Page is what the extractors need from a session: load a URL, query
// elements, run a script.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Elements(ctx context.Context, selector string) ([]browser.Element, error)
	Execute(ctx context.Context, script string) (string, error)
}

// Cascade is a prioritized list of selectors for one field. Candidates are
// evaluated in order and the first usable one wins; results are never
// merged across candidates.
type Cascade struct {
	Field     string
	Selectors []string
}

// First returns the elements of the first selector that matches at least
// one element. Lookup errors skip the candidate.
func (c Cascade) First(ctx context.Context, page Page, log *logger.Logger) (string, []browser.Element) {
	for _, selector := range c.Selectors {
		elements, err := page.Elements(ctx, selector)
		if err != nil {
			log.Debug("%s: selector %s failed: %v", c.Field, selector, err)
			continue
		}
		if len(elements) > 0 {
			return selector, elements
		}
	}
	return "", nil
}

// FirstText returns the trimmed text of the first selector whose first
// element has non-empty text.
func (c Cascade) FirstText(ctx context.Context, page Page, log *logger.Logger) (string, string, bool) {
	for _, selector := range c.Selectors {
		elements, err := page.Elements(ctx, selector)
		if err != nil {
			log.Debug("%s: selector %s failed: %v", c.Field, selector, err)
			continue
		}
		if len(elements) == 0 {
			continue
		}

		text, err := elements[0].Text()
		if err != nil {
			log.Debug("%s: reading text for %s failed: %v", c.Field, selector, err)
			continue
		}

		if text = strings.TrimSpace(text); text != "" {
			return text, selector, true
		}
	}
	return "", "", false
}
