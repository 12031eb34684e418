package chatctx

import (
	"strings"
	"unicode/utf8"
)

const (
	SourceSeparator = "\n---\n"

	GeminiContextCharCap  = 120000
	DefaultContextCharCap = 50000
)

// Source is one document's assembled context together with its display title.
type Source struct {
	Title   string
	Context string
}

// CombineSources tags every source with its title and joins them in order.
func CombineSources(sources []Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, "[SOURCE: "+s.Title+"]\n"+s.Context)
	}
	return strings.Join(parts, SourceSeparator)
}

// CharCap is the combined context budget in characters for model.
func CharCap(model string) int {
	if normalizeModel(model) == "gemini" {
		return GeminiContextCharCap
	}
	return DefaultContextCharCap
}

// Truncate keeps the first max characters of text.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(text) <= max {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}

func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}
