// Package federation implements the federated query orchestrator: parallel
// fan-out over the provider registry, facet combining, persisted marking,
// and the persistence flows that feed review result collections.
package federation

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/LitFed/internal/provider"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// WrapperSource yields independent wrapper clones in fan-out order.
// *provider.Registry satisfies it.
type WrapperSource interface {
	CloneAll() (ids []string, wrappers []provider.Wrapper)
}

// PersistedCache caches the persisted-DOI set per review so dry queries do
// not hit the store on every call.  Implementations live in the redis
// infrastructure package; a nil cache disables caching.
type PersistedCache interface {
	// GetPersistedDOIs returns the cached set and whether it was present.
	GetPersistedDOIs(ctx context.Context, reviewID common.ID) (map[string]struct{}, bool, error)
	SetPersistedDOIs(ctx context.Context, reviewID common.ID, dois map[string]struct{}) error
	// AddPersistedDOIs extends the cached set after a persist; a no-op when
	// the set is not cached.
	AddPersistedDOIs(ctx context.Context, reviewID common.ID, dois []string) error
	InvalidateReview(ctx context.Context, reviewID common.ID) error
}

// EventPublisher emits ingestion events after records are persisted.
// Implementations live in the kafka infrastructure package; a nil publisher
// disables events.
type EventPublisher interface {
	ResultsPersisted(ctx context.Context, reviewID, sessionID common.ID, dois []string) error
}

// Metrics records orchestrator observations.  A nil Metrics disables
// recording.
type Metrics interface {
	ObserveFederatedQuery(providers int, d time.Duration)
	ObserveProviderCall(providerName string, valid bool, d time.Duration)
	AddPersistedRecords(n int)
}

// PageLength is the caller-requested total page length of a federated query.
// The wire form is either a number or the string "max", which requests each
// provider's per-request maximum.
type PageLength struct {
	Max   bool
	Value int
}

// Len builds a numeric page length.
func Len(n int) PageLength { return PageLength{Value: n} }

// MaxLen requests each provider's maximum.
func MaxLen() PageLength { return PageLength{Max: true} }

func (p PageLength) MarshalJSON() ([]byte, error) {
	if p.Max {
		return []byte(`"max"`), nil
	}
	return []byte(strconv.Itoa(p.Value)), nil
}

func (p *PageLength) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if strings.EqualFold(s, "max") {
		*p = PageLength{Max: true}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "page_length must be a number or \"max\"")
	}
	*p = PageLength{Value: n}
	return nil
}

var _ json.Marshaler = PageLength{}
var _ json.Unmarshaler = (*PageLength)(nil)
