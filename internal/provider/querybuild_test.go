package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LitFed/internal/domain/search"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

func TestEncodeTerm(t *testing.T) {
	tests := []struct {
		name string
		term string
		want string
	}{
		{"plain word", "bitcoin", "bitcoin"},
		{"phrase is quoted and encoded", "energy efficiency", "%22energy+efficiency%22"},
		{"already quoted phrase not double quoted", `"energy efficiency"`, "%22energy+efficiency%22"},
		{"special characters escaped", "C&C", "C%26C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeTerm(tt.term))
		})
	}
}

func TestBuildGroup(t *testing.T) {
	t.Run("and group", func(t *testing.T) {
		got, err := BuildGroup([]string{"a", "b"}, search.MatchAnd, "+", "-")
		require.NoError(t, err)
		assert.Equal(t, "(a+AND+b)", got)
	})

	t.Run("not group joins with OR and negates", func(t *testing.T) {
		got, err := BuildGroup([]string{"a", "b"}, search.MatchNot, "+", "-")
		require.NoError(t, err)
		assert.Equal(t, "-(a+OR+b)", got)
	})

	t.Run("unknown match", func(t *testing.T) {
		_, err := BuildGroup([]string{"a"}, search.Match("XOR"), "+", "-")
		assert.Equal(t, apperrors.ErrCodeQueryUnknownMatch, apperrors.GetCode(err))
	})
}

func TestTranslateGetQuery_TermPrefix(t *testing.T) {
	q := &search.Query{
		Match: search.MatchAnd,
		SearchGroups: []search.Group{
			{SearchTerms: []string{"bitcoin", "blockchain"}, Match: search.MatchAnd},
		},
	}
	got, err := TranslateGetQuery(q, "", "+", "-", true)
	require.NoError(t, err)
	assert.Equal(t, "(bitcoin+AND+blockchain)", got)

	got, err = TranslateGetQuery(q, "keyword:", "+", "-", true)
	require.NoError(t, err)
	assert.Equal(t, "(keyword:bitcoin+AND+keyword:blockchain)", got)
}

func TestTranslateGetQuery_FieldWrap(t *testing.T) {
	q := &search.Query{
		Match: search.MatchAnd,
		SearchGroups: []search.Group{
			{SearchTerms: []string{"energy"}, Match: search.MatchOr},
			{SearchTerms: []string{"nuclear"}, Match: search.MatchNot},
		},
	}
	got, err := TranslateGetQuery(q, "ALL", "+", "NOT+", false)
	require.NoError(t, err)
	assert.Equal(t, "ALL((energy))+AND+NOT+ALL((nuclear))", got)
}

func TestTranslateGetQuery_Errors(t *testing.T) {
	t.Run("no groups", func(t *testing.T) {
		_, err := TranslateGetQuery(&search.Query{Match: search.MatchAnd}, "", "+", "-", true)
		assert.Equal(t, apperrors.ErrCodeQueryEmptyGroup, apperrors.GetCode(err))
	})

	t.Run("empty terms", func(t *testing.T) {
		q := &search.Query{
			Match:        search.MatchAnd,
			SearchGroups: []search.Group{{Match: search.MatchAnd}},
		}
		_, err := TranslateGetQuery(q, "", "+", "-", true)
		assert.Equal(t, apperrors.ErrCodeQueryEmptyTerm, apperrors.GetCode(err))
	})

	t.Run("NOT group under OR connector", func(t *testing.T) {
		q := &search.Query{
			Match: search.MatchOr,
			SearchGroups: []search.Group{
				{SearchTerms: []string{"solar"}, Match: search.MatchOr},
				{SearchTerms: []string{"nuclear"}, Match: search.MatchNot},
			},
		}
		_, err := TranslateGetQuery(q, "", "+", "-", true)
		assert.Equal(t, apperrors.ErrCodeQueryOrNot, apperrors.GetCode(err))
	})
}

func TestBuildGetQuery(t *testing.T) {
	params := map[string]string{
		"year":    "2020",
		"keyword": "machine learning",
	}
	// Sorted key order keeps the output deterministic.
	assert.Equal(t, "keyword:%22machine+learning%22+year:2020", BuildGetQuery(params, ":", "+"))
}

func TestValidateSearchField(t *testing.T) {
	allowed := map[string][]string{
		"year":       {},
		"openaccess": {"true"},
	}

	assert.NoError(t, validateSearchField(allowed, "year", "2021"))
	assert.NoError(t, validateSearchField(allowed, "openaccess", "true"))

	err := validateSearchField(allowed, "year", "")
	assert.Equal(t, apperrors.ErrCodeQueryEmptyTerm, apperrors.GetCode(err))

	err = validateSearchField(allowed, "publisher", "acme")
	assert.Equal(t, apperrors.ErrCodeQueryUnknownField, apperrors.GetCode(err))

	err = validateSearchField(allowed, "openaccess", "maybe")
	assert.Equal(t, apperrors.ErrCodeQueryIllegalFieldValue, apperrors.GetCode(err))
}

func TestRenderBodyGroups(t *testing.T) {
	q := &search.Query{
		Match: search.MatchAnd,
		SearchGroups: []search.Group{
			{SearchTerms: []string{"solar", "wind"}, Match: search.MatchOr},
			{SearchTerms: []string{"nuclear"}, Match: search.MatchNot},
		},
	}
	got, err := RenderBodyGroups(q)
	require.NoError(t, err)
	assert.Equal(t, "((solar OR wind) AND NOT (nuclear))", got)
}
