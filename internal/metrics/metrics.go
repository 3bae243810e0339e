// Package metrics provides Prometheus metrics for the API and the submission
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricHTTPRequestsTotal = "http_requests_total"
	MetricHTTPDuration      = "http_request_duration_seconds"
	MetricPipelineTotal     = "report_pipeline_total"
	MetricAnalysisDuration  = "analysis_call_duration_seconds"
)

// Pipeline outcome labels.
const (
	OutcomeResponded        = "responded"
	OutcomeValidationError  = "validation_error"
	OutcomeStorageError     = "storage_error"
	OutcomeAnalysisError    = "analysis_error"
	OutcomeAnalysisDegraded = "analysis_degraded"
	OutcomePersistenceError = "persistence_error"
)

// Metrics contains the Prometheus collectors. All operations are thread-safe.
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	pipelineTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram
}

// New creates a Metrics instance with all collectors initialized. The
// collectors are not registered; call Register with a registry.
func New() *Metrics {
	return &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPDuration,
				Help:    "Histogram of HTTP request duration in seconds by method and path",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"method", "path"},
		),
		pipelineTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPipelineTotal,
				Help: "Total number of report submissions by terminal outcome",
			},
			[]string{"outcome"},
		),
		analysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricAnalysisDuration,
				Help:    "Histogram of AI analysis call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.httpRequests,
		m.httpDuration,
		m.pipelineTotal,
		m.analysisDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncHTTPRequest increments the request counter.
func (m *Metrics) IncHTTPRequest(method, path, status string) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
}

// ObserveHTTPDuration records a request duration in seconds.
func (m *Metrics) ObserveHTTPDuration(method, path string, seconds float64) {
	m.httpDuration.WithLabelValues(method, path).Observe(seconds)
}

// IncPipelineOutcome increments the pipeline outcome counter.
func (m *Metrics) IncPipelineOutcome(outcome string) {
	m.pipelineTotal.WithLabelValues(outcome).Inc()
}

// ObserveAnalysisDuration records an analysis call duration in seconds.
func (m *Metrics) ObserveAnalysisDuration(seconds float64) {
	m.analysisDuration.Observe(seconds)
}
