package search

import (
	"strings"
	"unicode"
)

// stopWords is the fixed English stop-word list dropped during title-based
// keyword extraction.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
	"this": {}, "these": {}, "those": {}, "their": {}, "using": {}, "based": {},
	"via": {}, "towards": {}, "toward": {}, "into": {}, "can": {}, "not": {},
}

// KeywordsFromTitles derives a keyword facet from record titles for providers
// that return no keyword facets of their own.  Titles are lowercased,
// stripped of non-alphanumeric runes, split on whitespace, filtered against
// the stop-word list, and counted.
func KeywordsFromTitles(titles []string) []KeywordCount {
	counts := map[string]int{}
	for _, title := range titles {
		for _, word := range tokenizeTitle(title) {
			if _, stop := stopWords[word]; stop {
				continue
			}
			counts[word]++
		}
	}
	return sortKeywordCounts(counts)
}

// tokenizeTitle lowercases the title, replaces every rune that is neither a
// letter nor a digit with a space, and splits on whitespace.
func tokenizeTitle(title string) []string {
	lowered := strings.ToLower(title)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, lowered)
	return strings.Fields(cleaned)
}
