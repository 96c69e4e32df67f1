package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricDataSourceRequestsTotal   = "urbanscore_datasource_requests_total"
	MetricDataSourceRequestDuration = "urbanscore_datasource_request_duration_seconds"
	MetricStaleResponsesDiscarded   = "urbanscore_stale_responses_discarded_total"
	MetricActiveSessions            = "urbanscore_active_sessions"
)

const (
	OutcomeSuccess   = "success"
	OutcomeNetwork   = "network_failure"
	OutcomeStatus    = "http_status_failure"
	OutcomeMalformed = "malformed_payload"
)

// Metrics holds the collectors for outbound data-source traffic and view state.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	staleResponses prometheus.Counter
	activeSessions prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDataSourceRequestsTotal,
				Help: "Requests made to the ranking data source by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricDataSourceRequestDuration,
				Help:    "Latency of ranking data source requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		staleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricStaleResponsesDiscarded,
			Help: "Ranking responses discarded because a newer request superseded them",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricActiveSessions,
			Help: "Open ranking view sessions",
		}),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration, m.staleResponses, m.activeSessions}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveRequest(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) IncStaleResponses() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// Handler serves the collectors gathered by reg in the Prometheus exposition format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
