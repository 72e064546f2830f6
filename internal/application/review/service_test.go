package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainreview "github.com/turtacn/LitFed/internal/domain/review"
	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

type fakeReviewRepo struct {
	domainreview.Repository
	reviews  map[common.ID]*domainreview.Review
	sessions map[common.ID]*domainreview.QuerySession
	deleted  []common.ID
	updated  *domainreview.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{
		reviews:  map[common.ID]*domainreview.Review{},
		sessions: map[common.ID]*domainreview.QuerySession{},
	}
}

func (f *fakeReviewRepo) Create(_ context.Context, r *domainreview.Review) error {
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeReviewRepo) GetByID(_ context.Context, id common.ID) (*domainreview.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeReviewNotFound, "review %s not found", id)
	}
	return r, nil
}

func (f *fakeReviewRepo) Update(_ context.Context, r *domainreview.Review) error {
	f.updated = r
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeReviewRepo) Delete(_ context.Context, id common.ID) error {
	delete(f.reviews, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeReviewRepo) ListByUser(_ context.Context, user common.UserID, _ common.Pagination) ([]*domainreview.Review, int64, error) {
	out := []*domainreview.Review{}
	for _, r := range f.reviews {
		if r.CanAccess(user) {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeReviewRepo) GetQuerySession(_ context.Context, _, sessionID common.ID) (*domainreview.QuerySession, error) {
	qs, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeQuerySessionNotFound, "query session not found")
	}
	return qs, nil
}

type fakeResultRepo struct {
	domainreview.ResultRepository
	pages       map[string]*domainreview.ResultPage
	sessionDOIs []string
	deletedDOIs []string
	scored      map[string][]search.Score
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{
		pages:  map[string]*domainreview.ResultPage{},
		scored: map[string][]search.Score{},
	}
}

func (f *fakeResultRepo) GetPageForReview(_ context.Context, reviewID common.ID, _, _ int) (*domainreview.ResultPage, error) {
	if p, ok := f.pages[string(reviewID)]; ok {
		return p, nil
	}
	return &domainreview.ResultPage{Results: []search.Record{}}, nil
}

func (f *fakeResultRepo) GetPageForSession(_ context.Context, _ common.ID, dois []string, _, _ int) (*domainreview.ResultPage, error) {
	f.sessionDOIs = dois
	recs := make([]search.Record, len(dois))
	for i, d := range dois {
		recs[i] = search.Record{DOI: d, Persisted: true}
	}
	return &domainreview.ResultPage{Results: recs, Total: int64(len(dois))}, nil
}

func (f *fakeResultRepo) DeleteByDOIs(_ context.Context, _ common.ID, dois []string) (int64, error) {
	f.deletedDOIs = dois
	return int64(len(dois)), nil
}

func (f *fakeResultRepo) UpdateScore(_ context.Context, _ common.ID, doi string, eval search.Score) (*search.Record, error) {
	f.scored[doi] = domainreview.UpsertEvaluation(f.scored[doi], eval)
	return &search.Record{DOI: doi, Persisted: true, Scores: f.scored[doi]}, nil
}

type fakeCache struct {
	invalidated []common.ID
}

func (f *fakeCache) GetPersistedDOIs(context.Context, common.ID) (map[string]struct{}, bool, error) {
	return nil, false, nil
}
func (f *fakeCache) SetPersistedDOIs(context.Context, common.ID, map[string]struct{}) error {
	return nil
}
func (f *fakeCache) AddPersistedDOIs(context.Context, common.ID, []string) error { return nil }
func (f *fakeCache) InvalidateReview(_ context.Context, id common.ID) error {
	f.invalidated = append(f.invalidated, id)
	return nil
}

func newTestService(t *testing.T) (Service, *fakeReviewRepo, *fakeResultRepo, *fakeCache) {
	t.Helper()
	reviews := newFakeReviewRepo()
	results := newFakeResultRepo()
	cache := &fakeCache{}
	svc := NewService(reviews, results, cache, logging.NewNopLogger())
	return svc, reviews, results, cache
}

func TestCreateAndGet(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	rv, err := svc.Create(context.Background(), &CreateInput{
		Name:  "energy survey",
		Owner: common.UserID("alice"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rv.ID)
	assert.Equal(t, "results-"+string(rv.ID), rv.ResultCollection)

	got, err := svc.Get(context.Background(), common.UserID("alice"), rv.ID)
	require.NoError(t, err)
	assert.Equal(t, rv.ID, got.ID)
}

func TestCreateRequiresName(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &CreateInput{Owner: "alice"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
}

func TestGetDeniedForStranger(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	rv, err := svc.Create(context.Background(), &CreateInput{Name: "r", Owner: "alice"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), common.UserID("mallory"), rv.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestCollaboratorCanReadButNotManageCollaborators(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	rv, err := svc.Create(context.Background(), &CreateInput{
		Name:          "r",
		Owner:         "alice",
		Collaborators: []common.UserID{"bob"},
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), common.UserID("bob"), rv.ID)
	require.NoError(t, err)

	desc := "updated"
	_, err = svc.Update(context.Background(), &UpdateInput{ID: rv.ID, Description: &desc, User: "bob"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), &UpdateInput{
		ID:            rv.ID,
		Collaborators: []common.UserID{"bob", "carol"},
		User:          "bob",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
}

func TestDeleteOwnerOnly(t *testing.T) {
	svc, reviews, _, cache := newTestService(t)
	rv, err := svc.Create(context.Background(), &CreateInput{
		Name:          "r",
		Owner:         "alice",
		Collaborators: []common.UserID{"bob"},
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), common.UserID("bob"), rv.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))

	require.NoError(t, svc.Delete(context.Background(), common.UserID("alice"), rv.ID))
	assert.Equal(t, []common.ID{rv.ID}, reviews.deleted)
	assert.Equal(t, []common.ID{rv.ID}, cache.invalidated)
}

func TestResultsForSessionUsesSessionDOIs(t *testing.T) {
	svc, reviews, results, _ := newTestService(t)
	rv, err := svc.Create(context.Background(), &CreateInput{Name: "r", Owner: "alice"})
	require.NoError(t, err)

	reviews.sessions["q-1"] = &domainreview.QuerySession{
		ID:      common.ID("q-1"),
		Results: []string{"D1", "D2"},
	}

	page, err := svc.Results(context.Background(), "alice", rv.ID, 1, 20, common.ID("q-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2"}, results.sessionDOIs)
	assert.Equal(t, int64(2), page.Total)
}

func TestResultsUnknownSession(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	rv, err := svc.Create(context.Background(), &CreateInput{Name: "r", Owner: "alice"})
	require.NoError(t, err)

	_, err = svc.Results(context.Background(), "alice", rv.ID, 1, 20, common.ID("missing"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeQuerySessionNotFound, apperrors.GetCode(err))
}

func TestResultsRejectsPageWithoutLength(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	rv, err := svc.Create(context.Background(), &CreateInput{Name: "r", Owner: "alice"})
	require.NoError(t, err)

	_, err = svc.Results(context.Background(), "alice", rv.ID, 2, 0, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeBadRequest, apperrors.GetCode(err))
}

func TestDeleteResultsInvalidatesCache(t *testing.T) {
	svc, _, results, cache := newTestService(t)
	rv, err := svc.Create(context.Background(), &CreateInput{Name: "r", Owner: "alice"})
	require.NoError(t, err)

	deleted, err := svc.DeleteResults(context.Background(), "alice", rv.ID, []string{"D1", "D3"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, []string{"D1", "D3"}, results.deletedDOIs)
	assert.Equal(t, []common.ID{rv.ID}, cache.invalidated)
}

func TestUpdateScoreUpserts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	rv, err := svc.Create(context.Background(), &CreateInput{Name: "r", Owner: "alice"})
	require.NoError(t, err)

	rec, err := svc.UpdateScore(context.Background(), "alice", rv.ID, "D1", 1, "maybe")
	require.NoError(t, err)
	require.Len(t, rec.Scores, 1)

	// same user scores again: overwritten, not appended
	rec, err = svc.UpdateScore(context.Background(), "alice", rv.ID, "D1", 2, "relevant")
	require.NoError(t, err)
	require.Len(t, rec.Scores, 1)
	assert.Equal(t, 2, rec.Scores[0].Score)
	assert.Equal(t, "relevant", rec.Scores[0].Comment)

	rec, err = svc.UpdateScore(context.Background(), "alice", rv.ID, "D1", 0, "")
	require.NoError(t, err)
	require.Len(t, rec.Scores, 1)

	_, err = svc.UpdateScore(context.Background(), "alice", rv.ID, "", 1, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeResultMissingDOI, apperrors.GetCode(err))
}
