// Package search defines the canonical query and response model shared by all
// provider wrappers and the federated orchestrator.  Every wrapper accepts a
// Query and emits an Envelope; the orchestrator only ever deals in these two
// shapes regardless of which vendor produced them.
package search

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

// Match is a boolean connector between terms or groups.
type Match string

const (
	MatchAnd Match = "AND"
	MatchOr  Match = "OR"
	MatchNot Match = "NOT"
)

// Field is a canonical search field.  Wrappers translate these into their
// vendor-specific field tokens via their fields translate map.
type Field string

const (
	FieldAll      Field = "all"
	FieldTitle    Field = "title"
	FieldAbstract Field = "abstract"
	FieldKeywords Field = "keywords"
)

// canonicalFields is the closed set of fields a Query may name.
var canonicalFields = map[Field]struct{}{
	FieldAll:      {},
	FieldTitle:    {},
	FieldAbstract: {},
	FieldKeywords: {},
}

// Group is an ordered sequence of search terms joined by a single connector.
// A NOT group is rendered by connecting its terms with OR and negating the
// whole group.
type Group struct {
	SearchTerms []string `json:"search_terms" validate:"required,min=1"`
	Match       Match    `json:"match" validate:"required,oneof=AND OR NOT"`
}

// Query is the canonical structured boolean query.
//
// Invariants:
//   - At least one group, each with at least one non-empty term.
//   - Top-level Match is AND or OR; a NOT group requires top-level AND
//     (only AND NOT is expressible).
//   - Fields is drawn from the canonical set; "all" is exclusive with the
//     other fields.  An empty Fields slice is legal and defaults to each
//     wrapper's first mapped field at translation time.
//
// Terms containing whitespace are treated as phrases and quoted during
// translation.
type Query struct {
	SearchGroups []Group `json:"search_groups" validate:"required,min=1"`
	Match        Match   `json:"match" validate:"required,oneof=AND OR"`
	Fields       []Field `json:"fields"`
}

// queryValidator enforces the struct-tag constraints.  A single instance
// caches the parsed tags; Struct is safe for concurrent use.
var queryValidator = validator.New()

// Validate checks the structural invariants of the query: the tag-level
// constraints via the validator, then the cross-field rules the tags cannot
// express.  Wrapper-specific constraints (supported fields, allowed field
// values) are checked later by each translator.
func (q *Query) Validate() error {
	if q == nil {
		return apperrors.New(apperrors.ErrCodeQueryEmptyGroup, "no search groups specified")
	}

	if err := queryValidator.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return tagViolation(verrs[0])
		}
		return apperrors.Wrap(err, apperrors.ErrCodeQueryInvalid, "invalid query")
	}

	for _, g := range q.SearchGroups {
		for _, term := range g.SearchTerms {
			if strings.TrimSpace(term) == "" {
				return apperrors.New(apperrors.ErrCodeQueryEmptyTerm, "empty search term")
			}
		}
		if g.Match == MatchNot && q.Match != MatchAnd {
			return apperrors.New(apperrors.ErrCodeQueryOrNot, "only AND NOT supported")
		}
	}

	hasAll := false
	for _, f := range q.Fields {
		if _, ok := canonicalFields[f]; !ok {
			return apperrors.Newf(apperrors.ErrCodeQueryUnknownField, "unsupported search field %q", f)
		}
		if f == FieldAll {
			hasAll = true
		}
	}
	if hasAll && len(q.Fields) > 1 {
		return apperrors.New(apperrors.ErrCodeQueryInvalid, `field "all" cannot be combined with other fields`)
	}

	return nil
}

// tagViolation maps the first tag failure onto the query error taxonomy.
func tagViolation(fe validator.FieldError) error {
	switch fe.StructField() {
	case "SearchGroups":
		return apperrors.New(apperrors.ErrCodeQueryEmptyGroup, "no search groups specified")
	case "SearchTerms":
		return apperrors.New(apperrors.ErrCodeQueryEmptyTerm, "no search terms specified")
	case "Match":
		return apperrors.Newf(apperrors.ErrCodeQueryUnknownMatch, "unknown match %q", fe.Value())
	}
	return apperrors.Newf(apperrors.ErrCodeQueryInvalid, "invalid query: %s", fe.Error())
}

// Clone returns a deep copy of the query.  Translators mutate their working
// copy (quoting, percent-encoding), so they must never operate on the
// caller's value directly.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	out := &Query{
		Match:  q.Match,
		Fields: append([]Field(nil), q.Fields...),
	}
	out.SearchGroups = make([]Group, len(q.SearchGroups))
	for i, g := range q.SearchGroups {
		out.SearchGroups[i] = Group{
			SearchTerms: append([]string(nil), g.SearchTerms...),
			Match:       g.Match,
		}
	}
	return out
}
