package captions

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultHighlightKeywords are emphasized when no list is configured.
var DefaultHighlightKeywords = []string{
	"AMAZING", "INCREDIBLE", "SECRET", "IMPORTANT", "SHOCKING", "EXCLUSIVE",
	"NEVER", "ALWAYS", "ONLY", "MUST", "CAN'T", "WON'T",
	"BEST", "WORST", "FIRST", "LAST", "BIGGEST", "SMALLEST", "MOST", "LEAST",
	"WHY", "HOW", "WHAT", "WHEN", "WHERE",
	"MONEY", "FREE", "EASY", "HARD", "TRUTH",
}

// Highlighter matches caption words against keywords by case-insensitive substring.
type Highlighter struct {
	keywords []string
}

// NewHighlighter builds a Highlighter. An empty list uses DefaultHighlightKeywords.
func NewHighlighter(keywords []string) Highlighter {
	if len(keywords) == 0 {
		keywords = DefaultHighlightKeywords
	}
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = Upper(strings.TrimSpace(kw)); kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return Highlighter{keywords: normalized}
}

// Match reports whether word contains any keyword. So "SECRETLY" matches "SECRET".
func (h Highlighter) Match(word string) bool {
	word = Upper(word)
	for _, kw := range h.keywords {
		if strings.Contains(word, kw) {
			return true
		}
	}
	return false
}

// Keywords returns the normalized keyword list.
func (h Highlighter) Keywords() []string {
	return append([]string(nil), h.keywords...)
}

// Upper upper-cases caption text with Unicode-aware rules.
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
