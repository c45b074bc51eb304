package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/linkedin-scraper/pkg/config"
)

// PostFilter decides whether a scraped snippet counts as an authored post.
// Lengths are counted in characters, not bytes.
type PostFilter struct {
	minLength       int
	maxLength       int
	maxContent      int
	repostMaxLength int
	markers         []string
}

func NewPostFilter(cfg config.FilterConfig) PostFilter {
	markers := make([]string, len(cfg.RepostMarkers))
	for i, m := range cfg.RepostMarkers {
		markers[i] = strings.ToLower(m)
	}

	return PostFilter{
		minLength:       cfg.MinLength,
		maxLength:       cfg.MaxLength,
		maxContent:      cfg.MaxContent,
		repostMaxLength: cfg.RepostMaxLength,
		markers:         markers,
	}
}

// Accept keeps text strictly between the length bounds that is not a
// simple repost.
func (f PostFilter) Accept(text string) bool {
	n := utf8.RuneCountInString(text)
	if n <= f.minLength || n >= f.maxLength {
		return false
	}
	return !f.IsSimpleRepost(text)
}

// IsSimpleRepost is true for short notification-style snippets. Long text
// that happens to contain a marker phrase is not a repost.
func (f PostFilter) IsSimpleRepost(text string) bool {
	if utf8.RuneCountInString(text) >= f.repostMaxLength {
		return false
	}

	lower := strings.ToLower(text)
	for _, marker := range f.markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (f PostFilter) Truncate(text string) string {
	if utf8.RuneCountInString(text) <= f.maxContent {
		return text
	}
	runes := []rune(text)
	return string(runes[:f.maxContent])
}
