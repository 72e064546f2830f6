package prometheus

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveProviderCallCountsValidity(t *testing.T) {
	m := New()

	m.ObserveProviderCall("springer", true, 120*time.Millisecond)
	m.ObserveProviderCall("springer", true, 80*time.Millisecond)
	m.ObserveProviderCall("scopus", false, 50*time.Millisecond)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(m.providerResponsesTotal.WithLabelValues("springer", "true")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.providerResponsesTotal.WithLabelValues("scopus", "false")))
}

func TestAddPersistedRecords(t *testing.T) {
	m := New()

	m.AddPersistedRecords(5)
	m.AddPersistedRecords(0)
	m.AddPersistedRecords(-3)
	m.AddPersistedRecords(2)

	assert.Equal(t, float64(7), testutil.ToFloat64(m.persistedRecordsTotal))
}

func TestObserveHTTPRequest(t *testing.T) {
	m := New()

	m.ObserveHTTPRequest("POST", "/dry_query", 200, 30*time.Millisecond)
	m.ObserveHTTPRequest("POST", "/dry_query", 200, 45*time.Millisecond)
	m.ObserveHTTPRequest("POST", "/dry_query", 400, 5*time.Millisecond)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/dry_query", "200")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/dry_query", "400")))
}

func TestHandlerServesExposition(t *testing.T) {
	m := New()
	m.ObserveFederatedQuery(2, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "litfed_federated_query_duration_seconds")
}
