package provider

import (
	"context"
	"time"

	"github.com/turtacn/LitFed/internal/domain/search"
)

// DefaultMaxRetries is the retry ceiling applied when a wrapper is built
// without an explicit value.
const DefaultMaxRetries = 3

// Wrapper is the capability contract every bibliographic provider satisfies.
//
// Wrapper instances are not safe for concurrent use: StartAt and SetShowNum
// mutate per-call state.  The orchestrator clones a fresh instance per
// federated call (see Clone); alternatively callers may serialize access.
type Wrapper interface {
	// Name is the registry name of the provider type, e.g. "SPRINGER".
	// The credential binder derives the API-key lookup name from it.
	Name() string

	// Endpoint returns the base URL of the vendor API.
	Endpoint() string

	// Collection returns the vendor collection queried.
	Collection() string
	// SetCollection switches the collection; the result format is coerced to
	// the collection's first allowed value when the current one is illegal.
	SetCollection(string) error

	// ResultFormat returns the response format requested from the vendor.
	ResultFormat() string
	// SetResultFormat fails with a BadConfig error when the format is not
	// allowed for the current collection.
	SetResultFormat(string) error

	// AllowedResultFormats enumerates the permitted format set per collection.
	AllowedResultFormats() map[string][]string

	// MaxRecords is the vendor's per-request result ceiling for the current
	// collection.
	MaxRecords() int

	// ShowNum is the number of records requested per call, clamped to
	// MaxRecords by SetShowNum.
	ShowNum() int
	SetShowNum(int)

	// StartAt sets the 1-based index of the first record requested.
	// Wrappers translate to their vendor's offset base internally.
	StartAt(int)

	MaxRetries() int
	SetMaxRetries(int)

	// AllowedSearchFields enumerates the manual-search parameters and, where
	// restricted, their permitted values.  An empty value list means any
	// value is accepted.
	AllowedSearchFields() map[string][]string

	// FieldsTranslateMap maps canonical query fields to vendor field tokens.
	FieldsTranslateMap() map[search.Field]string

	// SearchField sets one manual-search parameter after validation.
	SearchField(key, value string) error
	// ResetField clears one manual-search parameter.
	ResetField(key string) error
	// ResetAllFields clears every manual-search parameter.
	ResetAllFields()

	// BuildQuery builds the vendor request from accumulated manual-search
	// parameters.
	BuildQuery() (*Request, error)

	// TranslateQuery builds the vendor request from a canonical query.
	TranslateQuery(q *search.Query) (*Request, error)

	// CallAPI executes the query and returns the canonical envelope.
	// Failures never surface as errors; they are reported through the
	// envelope's error field with Result.Total == -1.
	CallAPI(ctx context.Context, q *search.Query) *search.Envelope

	// CallRaw executes the query and returns the unparsed vendor response
	// body, bypassing normalization.
	CallRaw(ctx context.Context, q *search.Query) ([]byte, error)

	// Clone returns an independent copy with identical configuration and no
	// shared mutable state.
	Clone() Wrapper
}

// Settings carries the deployment-level configuration of one wrapper
// instance.  Zero fields fall back to the provider's defaults.
type Settings struct {
	Endpoint     string
	Collection   string
	ResultFormat string
	Timeout      time.Duration
	MaxRetries   int
}

// firstField returns the provider's default canonical field: the first entry
// of its translate map in canonical declaration order.
func firstField(m map[search.Field]string) search.Field {
	for _, f := range []search.Field{search.FieldAll, search.FieldTitle, search.FieldAbstract, search.FieldKeywords} {
		if _, ok := m[f]; ok {
			return f
		}
	}
	return search.FieldAll
}

// resolveFields returns the query's fields, falling back to the provider
// default when none are given, and validates each against the translate map.
func resolveFields(q *search.Query, translate map[search.Field]string) ([]search.Field, error) {
	fields := q.Fields
	if len(fields) == 0 {
		fields = []search.Field{firstField(translate)}
	}
	for _, f := range fields {
		if _, ok := translate[f]; !ok {
			return nil, badFieldError(f)
		}
	}
	return fields, nil
}
