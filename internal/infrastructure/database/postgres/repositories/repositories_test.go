package repositories

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LitFed/internal/domain/search"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

func TestDecodeRecordAttachesScores(t *testing.T) {
	recordJSON := []byte(`{"doi":"D1","title":"Solar","persisted":true}`)
	scoresJSON := []byte(`[{"user":"alice","score":2,"comment":"relevant"}]`)

	rec, err := decodeRecord(recordJSON, scoresJSON)
	require.NoError(t, err)
	assert.Equal(t, "D1", rec.DOI)
	assert.True(t, rec.Persisted)
	require.Len(t, rec.Scores, 1)
	assert.Equal(t, "alice", rec.Scores[0].User)
	assert.Equal(t, 2, rec.Scores[0].Score)
}

func TestDecodeRecordEmptyScores(t *testing.T) {
	rec, err := decodeRecord([]byte(`{"doi":"D1"}`), []byte(`[]`))
	require.NoError(t, err)
	assert.Nil(t, rec.Scores)
}

func TestDecodeRecordUnreadable(t *testing.T) {
	_, err := decodeRecord([]byte(`{not json`), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSerialization, apperrors.GetCode(err))

	_, err = decodeRecord([]byte(`{}`), []byte(`{not json`))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSerialization, apperrors.GetCode(err))
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch v := d.(type) {
		case *common.ID:
			*v = r.vals[i].(common.ID)
		case *time.Time:
			*v = r.vals[i].(time.Time)
		case *[]byte:
			*v = r.vals[i].([]byte)
		case *[]string:
			if r.vals[i] != nil {
				*v = r.vals[i].([]string)
			}
		}
	}
	return nil
}

func TestScanSession(t *testing.T) {
	q := &search.Query{
		SearchGroups: []search.Group{{SearchTerms: []string{"bitcoin", "blockchain"}, Match: search.MatchAnd}},
		Match:        search.MatchAnd,
	}
	searchJSON, err := json.Marshal(q)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	qs, err := scanSession(fakeRow{vals: []any{
		common.ID("s-1"), now, searchJSON, []string{"D1", "D2"},
	}})
	require.NoError(t, err)
	assert.Equal(t, common.ID("s-1"), qs.ID)
	assert.Equal(t, now, qs.Time)
	require.NotNil(t, qs.Search)
	require.Len(t, qs.Search.SearchGroups, 1)
	assert.Equal(t, []string{"bitcoin", "blockchain"}, qs.Search.SearchGroups[0].SearchTerms)
	assert.Equal(t, []string{"D1", "D2"}, qs.Results)
}

func TestScanSessionNilResults(t *testing.T) {
	qs, err := scanSession(fakeRow{vals: []any{
		common.ID("s-2"), time.Now(), []byte(nil), nil,
	}})
	require.NoError(t, err)
	assert.Nil(t, qs.Search)
	assert.NotNil(t, qs.Results)
	assert.Empty(t, qs.Results)
}

func TestUserIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, userIDs([]common.UserID{"a", "b"}))
	assert.Empty(t, userIDs(nil))
}
