// Package review defines the literature-review aggregate: a user-owned
// container of query sessions and their persisted, DOI-keyed results.
package review

import (
	"fmt"
	"time"

	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// Review is a user-owned container for queries and their persisted results.
// Each review owns an isolated result collection named deterministically from
// its id; all result reads and writes for the review are scoped to it.
type Review struct {
	ID               common.ID       `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Owner            common.UserID   `json:"owner"`
	Collaborators    []common.UserID `json:"collaborators,omitempty"`
	ResultCollection string          `json:"result_collection"`
	Queries          []QuerySession  `json:"queries"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// QuerySession is one timestamped invocation of the federated orchestrator
// against a review.  Results holds the DOIs the session persisted, in
// persistence order.
type QuerySession struct {
	ID      common.ID     `json:"id"`
	Time    time.Time     `json:"time"`
	Search  *search.Query `json:"search"`
	Results []string      `json:"results"`
}

// PersistOutcome summarizes a page-range or list persistence run.
type PersistOutcome struct {
	Success      bool      `json:"success"`
	NumPersisted int       `json:"num_persisted"`
	NumSkipped   int       `json:"num_skipped"`
	QueryID      common.ID `json:"query_id"`
}

// ResultCollectionName derives the unique result collection name for a
// review id.
func ResultCollectionName(reviewID common.ID) string {
	return fmt.Sprintf("results-%s", reviewID)
}

// NewReview constructs a review with a fresh id and its deterministic result
// collection name.  The collection itself is created lazily on first persist.
func NewReview(name, description string, owner common.UserID) *Review {
	id := common.NewID()
	now := time.Now().UTC()
	return &Review{
		ID:               id,
		Name:             name,
		Description:      description,
		Owner:            owner,
		ResultCollection: ResultCollectionName(id),
		Queries:          []QuerySession{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewQuerySession constructs a timestamped session for the given canonical
// query.  The caller appends it to the review via the repository.
func NewQuerySession(q *search.Query) *QuerySession {
	return &QuerySession{
		ID:      common.NewID(),
		Time:    time.Now().UTC(),
		Search:  q,
		Results: []string{},
	}
}

// PersistedDOIs returns the union of DOIs over all of the review's query
// sessions.  The result set is what the orchestrator uses for persisted
// marking of fresh envelopes.
func (r *Review) PersistedDOIs() map[string]struct{} {
	dois := map[string]struct{}{}
	if r == nil {
		return dois
	}
	for _, q := range r.Queries {
		for _, doi := range q.Results {
			dois[doi] = struct{}{}
		}
	}
	return dois
}

// CanAccess reports whether the user owns the review or is a collaborator.
func (r *Review) CanAccess(user common.UserID) bool {
	if r == nil {
		return false
	}
	if r.Owner == user {
		return true
	}
	for _, c := range r.Collaborators {
		if c == user {
			return true
		}
	}
	return false
}

// UpsertEvaluation enforces the one-score-per-user invariant: if scores
// already contains an entry for the evaluator it is overwritten in place,
// otherwise the evaluation is appended.  The input slice is not mutated.
func UpsertEvaluation(scores []search.Score, eval search.Score) []search.Score {
	out := append([]search.Score(nil), scores...)
	for i := range out {
		if out[i].User == eval.User {
			out[i] = eval
			return out
		}
	}
	return append(out, eval)
}

// CalcStartAt computes the 1-based start index for a page.
// Inherited pagination base used for provider start_at values; SQL OFFSET
// callers use (page-1)*pageLength instead, see the result repository.
func CalcStartAt(page, pageLength int) int {
	return (page-1)*pageLength + 1
}
