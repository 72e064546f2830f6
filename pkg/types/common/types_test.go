package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_Validate(t *testing.T) {
	assert.Error(t, ID("").Validate())
	assert.Error(t, ID("not-a-uuid").Validate())
	assert.NoError(t, NewID().Validate())
}

func TestDOI_Validate(t *testing.T) {
	assert.Error(t, DOI("").Validate())
	assert.NoError(t, DOI("10.1007/s11192-019-03129-5").Validate())
	// Vendor responses sometimes carry non-Crossref identifiers; they remain valid.
	assert.NoError(t, DOI("arXiv:1901.00001").Validate())
}

func TestPagination_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Pagination
		wantErr bool
	}{
		{"valid", Pagination{Page: 1, PageSize: 20}, false},
		{"zero page", Pagination{Page: 0, PageSize: 20}, true},
		{"zero size", Pagination{Page: 1, PageSize: 0}, true},
		{"size too large", Pagination{Page: 1, PageSize: 501}, true},
		{"max size", Pagination{Page: 3, PageSize: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPagination_Offset(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 1, PageSize: 25}.Offset())
	assert.Equal(t, 50, Pagination{Page: 3, PageSize: 25}.Offset())
}

func TestTimestamp_JSONRoundTrip(t *testing.T) {
	ts := Timestamp(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01T12:30:00Z"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, time.Time(ts).Equal(time.Time(back)))
}

func TestTimestamp_UnmarshalRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`42`), &ts))
}

func TestGenerateID(t *testing.T) {
	assert.NotEmpty(t, GenerateID(""))
	assert.Contains(t, GenerateID("rev"), "rev-")
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"doi": "10.1/x"})
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.NotZero(t, time.Time(resp.Timestamp))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("QRY_004", "only AND NOT supported")
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "QRY_004", resp.Error.Code)
}

func TestBaseEvent(t *testing.T) {
	e := NewBaseEvent("review-123")
	assert.Equal(t, "review-123", e.AggregateID())
	assert.NotEmpty(t, e.EventID())
	assert.WithinDuration(t, time.Now().UTC(), e.OccurredAt(), time.Minute)
}
