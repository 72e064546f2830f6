package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineFacets(t *testing.T) {
	a := Facets{
		Countries: map[string]int{"DE": 3, "US": 1},
		Keywords:  []KeywordCount{{Text: "blockchain", Value: 2}, {Text: "energy", Value: 1}},
	}
	b := Facets{
		Countries: map[string]int{"DE": 2, "FR": 4},
		Keywords:  []KeywordCount{{Text: "blockchain", Value: 3}},
	}

	combined := CombineFacets(a, b)

	assert.Equal(t, map[string]int{"DE": 5, "US": 1, "FR": 4}, combined.Countries)
	assert.Equal(t, []KeywordCount{
		{Text: "blockchain", Value: 5},
		{Text: "energy", Value: 1},
	}, combined.Keywords)
}

func TestCombineFacets_Commutative(t *testing.T) {
	a := Facets{Countries: map[string]int{"DE": 1}, Keywords: []KeywordCount{{Text: "x", Value: 1}}}
	b := Facets{Countries: map[string]int{"DE": 2, "NL": 1}, Keywords: []KeywordCount{{Text: "y", Value: 2}}}

	assert.Equal(t, CombineFacets(a, b), CombineFacets(b, a))
}

func TestCombineFacets_Associative(t *testing.T) {
	a := Facets{Countries: map[string]int{"DE": 1}}
	b := Facets{Countries: map[string]int{"DE": 2}, Keywords: []KeywordCount{{Text: "k", Value: 1}}}
	c := Facets{Countries: map[string]int{"US": 3}, Keywords: []KeywordCount{{Text: "k", Value: 2}}}

	assert.Equal(t, CombineFacets(CombineFacets(a, b), c), CombineFacets(a, CombineFacets(b, c)))
}

func TestCombineFacets_Empty(t *testing.T) {
	combined := CombineFacets()
	assert.True(t, combined.IsZero())
	assert.NotNil(t, combined.Countries)
	assert.NotNil(t, combined.Keywords)
}

func TestFacets_IsZero(t *testing.T) {
	assert.True(t, NewFacets().IsZero())
	assert.False(t, Facets{Countries: map[string]int{"DE": 1}}.IsZero())
}

func TestKeywordOrderingDeterministic(t *testing.T) {
	f := Facets{Keywords: []KeywordCount{
		{Text: "beta", Value: 2},
		{Text: "alpha", Value: 2},
		{Text: "gamma", Value: 5},
	}}
	combined := CombineFacets(f)
	assert.Equal(t, []KeywordCount{
		{Text: "gamma", Value: 5},
		{Text: "alpha", Value: 2},
		{Text: "beta", Value: 2},
	}, combined.Keywords)
}
