// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the service records into.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Dataset
	DatasetLoads       prometheus.Counter
	DatasetRecords     *prometheus.GaugeVec
	DatasetDiagnostics prometheus.Gauge

	// Remote enrichment
	EnrichmentOutcomes *prometheus.CounterVec
	EnrichmentLatency  prometheus.Histogram

	// Grading
	GradingVerdicts *prometheus.CounterVec
	GradingFailures *prometheus.CounterVec
	AITokens        *prometheus.CounterVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics returns the process-wide collectors, registering them with the
// default registry on first use.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "atlas_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "atlas_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),

			DatasetLoads: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "atlas_dataset_loads_total",
					Help: "Total number of dataset (re)loads",
				},
			),
			DatasetRecords: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "atlas_dataset_records",
					Help: "Records in the current dataset snapshot",
				},
				[]string{"kind"},
			),
			DatasetDiagnostics: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "atlas_dataset_diagnostics",
					Help: "Load problems recorded for the current dataset snapshot",
				},
			),

			EnrichmentOutcomes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "atlas_enrichment_outcomes_total",
					Help: "Remote enrichment attempts by outcome",
				},
				[]string{"outcome"},
			),
			EnrichmentLatency: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "atlas_enrichment_latency_seconds",
					Help:    "Remote enrichment latency in seconds",
					Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
				},
			),

			GradingVerdicts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "atlas_grading_verdicts_total",
					Help: "Graded questions by verdict",
				},
				[]string{"verdict"},
			),
			GradingFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "atlas_grading_category_failures_total",
					Help: "Failed scorecard categories",
				},
				[]string{"category"},
			),
			AITokens: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "atlas_ai_tokens_total",
					Help: "Tokens consumed by LLM calls",
				},
				[]string{"provider", "model"},
			),
		}
	})

	return sharedMetrics
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordDatasetLoad records a dataset snapshot load.
func (m *Metrics) RecordDatasetLoad(standards, lessons, items, diagnostics int) {
	m.DatasetLoads.Inc()
	m.DatasetRecords.WithLabelValues("standards").Set(float64(standards))
	m.DatasetRecords.WithLabelValues("lessons").Set(float64(lessons))
	m.DatasetRecords.WithLabelValues("items").Set(float64(items))
	m.DatasetDiagnostics.Set(float64(diagnostics))
}

// RecordEnrichment records one remote enrichment attempt.
func (m *Metrics) RecordEnrichment(outcome string, d time.Duration) {
	m.EnrichmentOutcomes.WithLabelValues(outcome).Inc()
	m.EnrichmentLatency.Observe(d.Seconds())
}

// RecordGrade records a grading verdict and the categories it failed.
func (m *Metrics) RecordGrade(passed bool, failedCategories []string) {
	verdict := "fail"
	if passed {
		verdict = "pass"
	}
	m.GradingVerdicts.WithLabelValues(verdict).Inc()
	for _, c := range failedCategories {
		m.GradingFailures.WithLabelValues(c).Inc()
	}
}

// RecordTokens records LLM token usage.
func (m *Metrics) RecordTokens(provider, model string, tokens int) {
	if tokens > 0 {
		m.AITokens.WithLabelValues(provider, model).Add(float64(tokens))
	}
}
