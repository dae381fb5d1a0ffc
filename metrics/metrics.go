// Package metrics exposes prometheus collectors for the analyzer service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/seo-optimizer/metacheck/seo"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "metacheck"

// Analysis results other than an error code.
const ResultSuccess = "success"

type Metrics struct {
	handler http.Handler
	logger  *zap.Logger

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	analysesTotal       *prometheus.CounterVec
	analysisScore       prometheus.Histogram
	issuesTotal         *prometheus.CounterVec
	fetchAttemptsTotal  *prometheus.CounterVec
	cacheLookupsTotal   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New(namespace string, logger *zap.Logger) *Metrics {
	return NewWithRegistry(namespace, prometheus.NewRegistry(), logger)
}

// NewWithRegistry registers the collectors on registry. It panics if they
// are already registered there.
func NewWithRegistry(namespace string, registry *prometheus.Registry, logger *zap.Logger) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Metrics{logger: logger}

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of page analyses by result",
		},
		[]string{"result"},
	)

	m.analysisScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_score",
			Help:      "Distribution of analysis scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		},
	)

	m.issuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Total number of reported issues by severity",
		},
		[]string{"severity"},
	)

	m.fetchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "attempts_total",
			Help:      "Total number of access path attempts",
		},
		[]string{"path", "outcome"},
	)

	m.cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of report cache lookups",
		},
		[]string{"result"},
	)

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.analysesTotal,
		m.analysisScore,
		m.issuesTotal,
		m.fetchAttemptsTotal,
		m.cacheLookupsTotal,
	)

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})

	logger.Debug("Prometheus metrics initialized", zap.String("namespace", namespace))

	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// RecordRequest records one served HTTP request. route is the matched route
// pattern, not the raw path.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAnalysis records a completed analysis.
func (m *Metrics) RecordAnalysis(a seo.Analysis) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(ResultSuccess).Inc()
	m.analysisScore.Observe(float64(a.Score))
	for _, issue := range a.Issues {
		m.issuesTotal.WithLabelValues(string(issue.Type)).Inc()
	}
}

// RecordAnalysisFailure records an analysis that could not be completed.
// reason is an error code.
func (m *Metrics) RecordAnalysisFailure(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.analysesTotal.WithLabelValues(reason).Inc()
}

// ObserveFetch records one access path attempt.
func (m *Metrics) ObserveFetch(path string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.fetchAttemptsTotal.WithLabelValues(path, outcome).Inc()
}

// RecordCacheLookup records a report cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}
