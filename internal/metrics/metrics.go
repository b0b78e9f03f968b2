package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Analysis metrics
	analysesTotal         *prometheus.CounterVec
	analysisDuration      prometheus.Histogram
	sourceOutcomes        *prometheus.CounterVec
	sourceDuration        *prometheus.HistogramVec
	integrationConfidence prometheus.Gauge
	weightedTilt          prometheus.Gauge
	reportsRouted         *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),

		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrolens_analyses_total",
				Help: "Total number of fused analyses by global regime",
			},
			[]string{"global_regime"},
		),
		analysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "macrolens_analysis_duration_seconds",
				Help:    "End-to-end analysis duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		sourceOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrolens_source_outcomes_total",
				Help: "Source analysis outcomes by source and status",
			},
			[]string{"source", "status"},
		),
		sourceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macrolens_source_duration_seconds",
				Help:    "Per-source analysis duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
			},
			[]string{"source"},
		),
		integrationConfidence: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "macrolens_integration_confidence",
				Help: "Integration confidence of the latest fused analysis",
			},
		),
		weightedTilt: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "macrolens_weighted_tilt",
				Help: "Weighted equity tilt of the latest fused analysis",
			},
		),
		reportsRouted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrolens_reports_routed_total",
				Help: "Reports delivered to notifiers by notifier and status",
			},
			[]string{"notifier", "status"},
		),
	}

	reg.MustRegister(
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.httpRequestsInFlight,
		r.analysesTotal,
		r.analysisDuration,
		r.sourceOutcomes,
		r.sourceDuration,
		r.integrationConfidence,
		r.weightedTilt,
		r.reportsRouted,
	)

	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	r.httpRequestsTotal.WithLabelValues(method, path, statusToString(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordAnalysis records a completed fusion run.
func (r *Registry) RecordAnalysis(globalRegime string, confidence, tilt, duration float64) {
	r.analysesTotal.WithLabelValues(globalRegime).Inc()
	r.analysisDuration.Observe(duration)
	r.integrationConfidence.Set(confidence)
	r.weightedTilt.Set(tilt)
}

// RecordSource records one source outcome. Status is "ok", "unavailable",
// "timeout" or "error".
func (r *Registry) RecordSource(source, status string, duration float64) {
	r.sourceOutcomes.WithLabelValues(source, status).Inc()
	r.sourceDuration.WithLabelValues(source).Observe(duration)
}

// RecordReportRouted records a report delivery attempt.
func (r *Registry) RecordReportRouted(notifier, status string) {
	r.reportsRouted.WithLabelValues(notifier, status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
