// Package prometheus registers and exposes the application metrics.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/LitFed/internal/application/federation"
)

const namespace = "litfed"

// Metrics holds every metric vector the application records.  It carries its
// own registry so tests can construct isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	federatedQueryDuration  *prometheus.HistogramVec
	providerCallDuration    *prometheus.HistogramVec
	providerResponsesTotal  *prometheus.CounterVec
	persistedRecordsTotal   prometheus.Counter
}

var _ federation.Metrics = (*Metrics)(nil)

// New registers all metric vectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		federatedQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "federated_query_duration_seconds",
			Help:      "End-to-end federated query latency by provider count.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"providers"}),
		providerCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Per-provider call latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		providerResponsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_responses_total",
			Help:      "Provider responses by provider and envelope validity.",
		}, []string{"provider", "valid"}),
		persistedRecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persisted_records_total",
			Help:      "Result records written to review collections.",
		}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.federatedQueryDuration,
		m.providerCallDuration,
		m.providerResponsesTotal,
		m.persistedRecordsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveFederatedQuery records one orchestrated fan-out.
func (m *Metrics) ObserveFederatedQuery(providers int, d time.Duration) {
	m.federatedQueryDuration.WithLabelValues(strconv.Itoa(providers)).Observe(d.Seconds())
}

// ObserveProviderCall records one provider round trip and whether it yielded
// a valid envelope.
func (m *Metrics) ObserveProviderCall(providerName string, valid bool, d time.Duration) {
	m.providerCallDuration.WithLabelValues(providerName).Observe(d.Seconds())
	m.providerResponsesTotal.WithLabelValues(providerName, strconv.FormatBool(valid)).Inc()
}

// AddPersistedRecords counts freshly written result records.
func (m *Metrics) AddPersistedRecords(n int) {
	if n > 0 {
		m.persistedRecordsTotal.Add(float64(n))
	}
}
