package search

import "sort"

// KeywordCount is one keyword facet entry.
type KeywordCount struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// Facets aggregates counters over the records of one or more envelopes.
// Countries is keyed by ISO 3166-1 alpha-2 code (or the vendor's raw name
// when no ISO mapping exists).
type Facets struct {
	Countries map[string]int `json:"countries"`
	Keywords  []KeywordCount `json:"keywords"`
}

// NewFacets returns an empty, non-nil facet set.
func NewFacets() Facets {
	return Facets{
		Countries: map[string]int{},
		Keywords:  []KeywordCount{},
	}
}

// IsZero reports whether the facet set carries no counters.
func (f Facets) IsZero() bool {
	return len(f.Countries) == 0 && len(f.Keywords) == 0
}

// CombineFacets merges facet sets by key-wise integer addition: country
// counters add per ISO2 key, keyword counters add per text.  The operation
// is associative and commutative; the keyword output order is deterministic
// (descending count, ties broken by text).
func CombineFacets(sets ...Facets) Facets {
	out := NewFacets()
	keywords := map[string]int{}
	for _, f := range sets {
		for country, count := range f.Countries {
			out.Countries[country] += count
		}
		for _, kw := range f.Keywords {
			keywords[kw.Text] += kw.Value
		}
	}
	out.Keywords = sortKeywordCounts(keywords)
	return out
}

// sortKeywordCounts re-emits a keyword counter map as an ordered slice.
func sortKeywordCounts(counts map[string]int) []KeywordCount {
	out := make([]KeywordCount, 0, len(counts))
	for text, value := range counts {
		out = append(out, KeywordCount{Text: text, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Text < out[j].Text
	})
	return out
}
