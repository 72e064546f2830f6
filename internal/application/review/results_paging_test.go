package review

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainreview "github.com/turtacn/LitFed/internal/domain/review"
	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// memResultRepo mirrors the SQL repository's semantics: records keep their
// insertion order, (review, doi) is a primary key so a re-save replaces the
// stored record in place, and paging is LIMIT/OFFSET over that order.
type memResultRepo struct {
	domainreview.ResultRepository
	order []string
	byDOI map[string]search.Record
}

func newMemResultRepo() *memResultRepo {
	return &memResultRepo{byDOI: map[string]search.Record{}}
}

func (m *memResultRepo) SaveResults(_ context.Context, _ common.ID, records []search.Record) (int, int, []string, error) {
	saved, skipped := 0, 0
	savedDOIs := []string{}
	for _, rec := range records {
		if rec.DOI == "" {
			skipped++
			continue
		}
		rec.Persisted = true
		rec.Scores = nil
		if _, ok := m.byDOI[rec.DOI]; !ok {
			m.order = append(m.order, rec.DOI)
		}
		m.byDOI[rec.DOI] = rec
		saved++
		savedDOIs = append(savedDOIs, rec.DOI)
	}
	return saved, skipped, savedDOIs, nil
}

func (m *memResultRepo) GetPageForReview(_ context.Context, _ common.ID, page, pageLength int) (*domainreview.ResultPage, error) {
	dois := m.order
	if page > 0 {
		offset := (page - 1) * pageLength
		if offset > len(dois) {
			offset = len(dois)
		}
		end := offset + pageLength
		if end > len(dois) {
			end = len(dois)
		}
		dois = dois[offset:end]
	}
	out := make([]search.Record, len(dois))
	for i, d := range dois {
		out[i] = m.byDOI[d]
	}
	return &domainreview.ResultPage{Results: out, Total: int64(len(m.order))}, nil
}

func newPagingTestService(t *testing.T) (Service, *memResultRepo, common.ID) {
	t.Helper()
	results := newMemResultRepo()
	svc := NewService(newFakeReviewRepo(), results, nil, logging.NewNopLogger())
	rv, err := svc.Create(context.Background(), &CreateInput{Name: "r", Owner: "alice"})
	require.NoError(t, err)
	return svc, results, rv.ID
}

func savedRecords(n int) []search.Record {
	records := make([]search.Record, n)
	for i := range records {
		records[i] = search.Record{
			DOI:   fmt.Sprintf("10.1/%03d", i),
			Title: fmt.Sprintf("paper %d", i),
		}
	}
	return records
}

func TestResultsPagingReassemblesCollection(t *testing.T) {
	svc, results, reviewID := newPagingTestService(t)
	records := savedRecords(25)

	saved, skipped, _, err := results.SaveResults(context.Background(), reviewID, records)
	require.NoError(t, err)
	require.Equal(t, 25, saved)
	require.Equal(t, 0, skipped)

	// pages of 10 over 25 records: 10, 10, 5
	collected := []string{}
	for page := 1; ; page++ {
		p, err := svc.Results(context.Background(), "alice", reviewID, page, 10, "")
		require.NoError(t, err)
		assert.Equal(t, int64(25), p.Total)
		if len(p.Results) == 0 {
			break
		}
		for _, rec := range p.Results {
			collected = append(collected, rec.DOI)
		}
		if len(p.Results) < 10 {
			break
		}
	}

	expected := make([]string, len(records))
	for i, rec := range records {
		expected[i] = rec.DOI
	}
	// no omissions, no duplicates, insertion order preserved across pages
	assert.Equal(t, expected, collected)

	// page == 0 disables pagination and returns the whole collection
	all, err := svc.Results(context.Background(), "alice", reviewID, 0, 0, "")
	require.NoError(t, err)
	assert.Len(t, all.Results, 25)
}

func TestResultsDoubleSaveKeepsOneRecordPerDOI(t *testing.T) {
	svc, results, reviewID := newPagingTestService(t)
	records := savedRecords(8)

	_, _, _, err := results.SaveResults(context.Background(), reviewID, records)
	require.NoError(t, err)

	// re-fetching the same DOIs updates the stored records without growing
	// the collection
	for i := range records {
		records[i].Title = fmt.Sprintf("paper %d (revised)", i)
	}
	saved, skipped, _, err := results.SaveResults(context.Background(), reviewID, records)
	require.NoError(t, err)
	assert.Equal(t, 8, saved)
	assert.Equal(t, 0, skipped)

	p, err := svc.Results(context.Background(), "alice", reviewID, 0, 0, "")
	require.NoError(t, err)
	require.Len(t, p.Results, 8)
	assert.Equal(t, int64(8), p.Total)

	seen := map[string]struct{}{}
	for _, rec := range p.Results {
		_, dup := seen[rec.DOI]
		assert.False(t, dup, "doi %s returned twice", rec.DOI)
		seen[rec.DOI] = struct{}{}
	}
	assert.Equal(t, "paper 0 (revised)", p.Results[0].Title)
}
