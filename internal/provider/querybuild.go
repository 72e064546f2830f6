package provider

import (
	"net/url"
	"sort"
	"strings"

	"github.com/turtacn/LitFed/internal/domain/search"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

// EncodeTerm prepares one search term for inclusion in a GET query string:
// terms containing a space are quoted once to prevent splitting, then the
// whole term is percent-encoded (space becomes "+").
func EncodeTerm(term string) string {
	if strings.Contains(term, " ") {
		if !strings.HasPrefix(term, `"`) {
			term = `"` + term
		}
		if !strings.HasSuffix(term, `"`) {
			term += `"`
		}
	}
	return url.QueryEscape(term)
}

// BuildGroup joins items with the given connector and wraps them in
// parentheses.  A NOT group joins its items with OR and prefixes the group
// with the provider's negater token.
func BuildGroup(items []string, match search.Match, matchPad, negater string) (string, error) {
	connector := match
	prefix := ""
	switch match {
	case search.MatchAnd, search.MatchOr:
	case search.MatchNot:
		connector = search.MatchOr
		prefix = negater
	default:
		return "", apperrors.Newf(apperrors.ErrCodeQueryUnknownMatch, "unknown match %q", match)
	}
	joined := strings.Join(items, matchPad+string(connector)+matchPad)
	return prefix + "(" + joined + ")", nil
}

// groupExpr renders one group's terms for a GET provider: every term is
// encoded, prefixed with the provider field token, and joined by the group's
// connector.  NOT handling is delegated to BuildGroup.
func groupExpr(g search.Group, fieldPrefix, matchPad, negater string) (string, error) {
	terms := make([]string, len(g.SearchTerms))
	for i, t := range g.SearchTerms {
		terms[i] = fieldPrefix + EncodeTerm(t)
	}
	return BuildGroup(terms, g.Match, matchPad, negater)
}

// TranslateGetQuery renders the canonical query as a GET query-string
// expression for one provider field token.
//
// Each group becomes a parenthesized term list joined by its connector; a
// group's terms carry the field token per term when termPrefix is true
// (Springer style, "keyword:bitcoin"), or the whole group is wrapped in the
// field token when false (Scopus style, "ALL((bitcoin))").  Groups are then
// joined by the padded top-level connector, with NOT groups negated by the
// provider's negater token.
func TranslateGetQuery(q *search.Query, fieldToken, matchPad, negater string, termPrefix bool) (string, error) {
	if len(q.SearchGroups) == 0 {
		return "", apperrors.New(apperrors.ErrCodeQueryEmptyGroup, "no search groups specified")
	}

	parts := make([]string, 0, len(q.SearchGroups))
	for _, g := range q.SearchGroups {
		if g.Match == search.MatchNot && q.Match != search.MatchAnd {
			return "", apperrors.New(apperrors.ErrCodeQueryOrNot, "only AND NOT supported")
		}
		if len(g.SearchTerms) == 0 {
			return "", apperrors.New(apperrors.ErrCodeQueryEmptyTerm, "no search terms specified")
		}

		var expr string
		var err error
		if termPrefix {
			expr, err = groupExpr(g, fieldToken, matchPad, negater)
		} else {
			// Field token wraps the rendered group; the negater moves in
			// front of the field token.
			expr, err = groupExpr(g, "", matchPad, "")
			if err == nil {
				expr = fieldToken + "(" + expr + ")"
				if g.Match == search.MatchNot {
					expr = negater + expr
				}
			}
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, expr)
	}

	return strings.Join(parts, matchPad+string(q.Match)+matchPad), nil
}

// BuildGetQuery renders manually accumulated search parameters as a GET
// query-string expression.  Values containing a space are quoted; every
// value is percent-encoded.  Pairs are emitted in sorted key order so the
// output is deterministic.
func BuildGetQuery(params map[string]string, delim, connector string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+delim+EncodeTerm(params[k]))
	}
	return strings.Join(pairs, connector)
}

// badFieldError reports a canonical field the provider cannot search.
func badFieldError(f search.Field) *apperrors.AppError {
	return apperrors.Newf(apperrors.ErrCodeQueryUnknownField,
		"searching against field %q is not supported", string(f))
}

// validateSearchField checks a manual-search key/value pair against the
// provider's allowed-fields table.  An empty allowed-value list accepts any
// non-empty value.
func validateSearchField(allowed map[string][]string, key, value string) error {
	if value == "" {
		return apperrors.New(apperrors.ErrCodeQueryEmptyTerm, "value is empty")
	}
	values, ok := allowed[key]
	if !ok {
		return apperrors.Newf(apperrors.ErrCodeQueryUnknownField,
			"searches against %q are not supported", key)
	}
	if len(values) == 0 {
		return nil
	}
	for _, v := range values {
		if v == value {
			return nil
		}
	}
	return apperrors.Newf(apperrors.ErrCodeQueryIllegalFieldValue,
		"illegal value %q for search-field %q", value, key)
}

// RenderBodyGroups renders the canonical query as the nested parenthesized
// expression used inside PUT request bodies: groups joined by the top-level
// match with plain-space padding, NOT groups rendered as "NOT (t1 OR t2)".
func RenderBodyGroups(q *search.Query) (string, error) {
	if len(q.SearchGroups) == 0 {
		return "", apperrors.New(apperrors.ErrCodeQueryEmptyGroup, "no search groups specified")
	}

	groups := make([]string, 0, len(q.SearchGroups))
	for _, g := range q.SearchGroups {
		if g.Match == search.MatchNot && q.Match != search.MatchAnd {
			return "", apperrors.New(apperrors.ErrCodeQueryOrNot, "only AND NOT supported")
		}
		if len(g.SearchTerms) == 0 {
			return "", apperrors.New(apperrors.ErrCodeQueryEmptyTerm, "no search terms specified")
		}
		expr, err := BuildGroup(g.SearchTerms, g.Match, " ", "NOT ")
		if err != nil {
			return "", err
		}
		groups = append(groups, expr)
	}

	return BuildGroup(groups, q.Match, " ", "NOT ")
}
