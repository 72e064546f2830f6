package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordsFromTitles(t *testing.T) {
	titles := []string{
		"Blockchain for the Energy Sector",
		"Energy-efficient blockchain consensus",
	}
	keywords := KeywordsFromTitles(titles)

	counts := map[string]int{}
	for _, kw := range keywords {
		counts[kw.Text] = kw.Value
	}

	assert.Equal(t, 2, counts["blockchain"])
	assert.Equal(t, 2, counts["energy"])
	assert.Equal(t, 1, counts["consensus"])
	// Stop words never appear.
	assert.NotContains(t, counts, "for")
	assert.NotContains(t, counts, "the")
}

func TestKeywordsFromTitles_StripsPunctuation(t *testing.T) {
	keywords := KeywordsFromTitles([]string{"Bitcoin: A Peer-to-Peer Electronic Cash System"})

	counts := map[string]int{}
	for _, kw := range keywords {
		counts[kw.Text] = kw.Value
	}
	assert.Equal(t, 1, counts["bitcoin"])
	assert.Equal(t, 2, counts["peer"])
	assert.Equal(t, 1, counts["cash"])
}

func TestKeywordsFromTitles_Empty(t *testing.T) {
	assert.Empty(t, KeywordsFromTitles(nil))
	assert.Empty(t, KeywordsFromTitles([]string{"", "the of and"}))
}

func TestTokenizeTitle_Unicode(t *testing.T) {
	tokens := tokenizeTitle("Überwachung von Energie—Netzen")
	assert.Equal(t, []string{"überwachung", "von", "energie", "netzen"}, tokens)
}
