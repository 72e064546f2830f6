package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/pkg/types/common"
)

func TestNewReview(t *testing.T) {
	r := NewReview("blockchain slr", "energy sector literature", "alice")

	require.NoError(t, r.ID.Validate())
	assert.Equal(t, "blockchain slr", r.Name)
	assert.Equal(t, common.UserID("alice"), r.Owner)
	assert.Equal(t, ResultCollectionName(r.ID), r.ResultCollection)
	assert.Empty(t, r.Queries)
}

func TestResultCollectionName_Deterministic(t *testing.T) {
	id := common.ID("7f3a0000-0000-0000-0000-000000000001")
	assert.Equal(t, "results-7f3a0000-0000-0000-0000-000000000001", ResultCollectionName(id))
	assert.Equal(t, ResultCollectionName(id), ResultCollectionName(id))
}

func TestNewQuerySession(t *testing.T) {
	q := &search.Query{
		SearchGroups: []search.Group{{SearchTerms: []string{"bitcoin"}, Match: search.MatchAnd}},
		Match:        search.MatchAnd,
	}
	qs := NewQuerySession(q)

	require.NoError(t, qs.ID.Validate())
	assert.Equal(t, q, qs.Search)
	assert.NotNil(t, qs.Results)
	assert.Empty(t, qs.Results)
	assert.False(t, qs.Time.IsZero())
}

func TestReview_PersistedDOIs(t *testing.T) {
	r := NewReview("r", "", "alice")
	r.Queries = []QuerySession{
		{Results: []string{"10.1/a", "10.1/b"}},
		{Results: []string{"10.1/b", "10.1/c"}},
	}

	dois := r.PersistedDOIs()
	assert.Len(t, dois, 3)
	assert.Contains(t, dois, "10.1/a")
	assert.Contains(t, dois, "10.1/b")
	assert.Contains(t, dois, "10.1/c")

	var nilReview *Review
	assert.Empty(t, nilReview.PersistedDOIs())
}

func TestReview_CanAccess(t *testing.T) {
	r := NewReview("r", "", "alice")
	r.Collaborators = []common.UserID{"bob"}

	assert.True(t, r.CanAccess("alice"))
	assert.True(t, r.CanAccess("bob"))
	assert.False(t, r.CanAccess("mallory"))

	var nilReview *Review
	assert.False(t, nilReview.CanAccess("alice"))
}

func TestUpsertEvaluation(t *testing.T) {
	scores := []search.Score{{User: "alice", Score: 2, Comment: "a"}}

	// New user appends.
	scores2 := UpsertEvaluation(scores, search.Score{User: "bob", Score: 4})
	require.Len(t, scores2, 2)

	// Same user overwrites in place.
	scores3 := UpsertEvaluation(scores2, search.Score{User: "alice", Score: 5, Comment: "b"})
	require.Len(t, scores3, 2)
	assert.Equal(t, search.Score{User: "alice", Score: 5, Comment: "b"}, scores3[0])

	// Input slice is never mutated.
	assert.Equal(t, 2, scores[0].Score)
	assert.Equal(t, "a", scores[0].Comment)
}

func TestUpsertEvaluation_Idempotent(t *testing.T) {
	var scores []search.Score
	scores = UpsertEvaluation(scores, search.Score{User: "u", Score: 2, Comment: "a"})
	scores = UpsertEvaluation(scores, search.Score{User: "u", Score: 5, Comment: "b"})

	require.Len(t, scores, 1)
	assert.Equal(t, search.Score{User: "u", Score: 5, Comment: "b"}, scores[0])
}

func TestCalcStartAt(t *testing.T) {
	assert.Equal(t, 1, CalcStartAt(1, 20))
	assert.Equal(t, 21, CalcStartAt(2, 20))
	assert.Equal(t, 101, CalcStartAt(6, 20))
}
