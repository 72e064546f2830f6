package review

import (
	"context"

	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// ResultPage is one page of persisted results together with the total count
// for the queried scope.
type ResultPage struct {
	Results []search.Record `json:"results"`
	Total   int64           `json:"total_results"`
}

// Repository is the persistence contract for reviews and their embedded
// query sessions.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id common.ID) (*Review, error)
	Update(ctx context.Context, r *Review) error
	// Delete removes the review, its query sessions, and drops its result
	// collection.
	Delete(ctx context.Context, id common.ID) error
	ListByUser(ctx context.Context, user common.UserID, p common.Pagination) ([]*Review, int64, error)

	AddQuerySession(ctx context.Context, reviewID common.ID, qs *QuerySession) error
	GetQuerySession(ctx context.Context, reviewID, sessionID common.ID) (*QuerySession, error)
	// AppendSessionDOIs records freshly persisted DOIs on a session.
	AppendSessionDOIs(ctx context.Context, reviewID, sessionID common.ID, dois []string) error
	// PersistedDOIs returns the union of DOIs over all of the review's
	// sessions in a single read.
	PersistedDOIs(ctx context.Context, reviewID common.ID) (map[string]struct{}, error)
}

// ResultRepository is the persistence contract for the DOI-keyed result
// collections.  Every operation is scoped to one review's collection.
type ResultRepository interface {
	// SaveResults upserts records by DOI with persisted=true and reports how
	// many were written and how many were skipped for lacking a DOI.
	// Record order is preserved.
	SaveResults(ctx context.Context, reviewID common.ID, records []search.Record) (saved, skipped int, savedDOIs []string, err error)

	// GetPageForReview returns one page over all records of the review.
	// page == 0 disables pagination and returns everything.
	GetPageForReview(ctx context.Context, reviewID common.ID, page, pageLength int) (*ResultPage, error)

	// GetPageForSession returns one page over the records whose DOI belongs
	// to the given session.
	GetPageForSession(ctx context.Context, reviewID common.ID, sessionDOIs []string, page, pageLength int) (*ResultPage, error)

	GetByDOI(ctx context.Context, reviewID common.ID, doi string) (*search.Record, error)
	GetByDOIs(ctx context.Context, reviewID common.ID, dois []string) ([]search.Record, error)
	DeleteByDOIs(ctx context.Context, reviewID common.ID, dois []string) (int64, error)
	// DeleteAllForReview truncates the review's collection.
	DeleteAllForReview(ctx context.Context, reviewID common.ID) error

	// UpdateScore upserts the evaluator's score on one record under the
	// one-score-per-user invariant and returns the updated record.
	UpdateScore(ctx context.Context, reviewID common.ID, doi string, eval search.Score) (*search.Record, error)
}
