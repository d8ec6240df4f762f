package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes pipeline counters to Prometheus. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	rowsSkipped     *prometheus.CounterVec
	sourceFailures  *prometheus.CounterVec
	classifications *prometheus.CounterVec
	stageLatency    *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		rowsSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptolens_rows_skipped_total",
				Help: "Rows dropped during normalization because a field did not parse",
			},
			[]string{"source"},
		),
		sourceFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptolens_source_failures_total",
				Help: "Failed loads per external source",
			},
			[]string{"source"},
		),
		classifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptolens_classifications_total",
				Help: "Classifier calls by outcome label",
			},
			[]string{"outcome"},
		),
		stageLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptolens_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptolens_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptolens_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (r *Recorder) RecordSkipped(source string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.rowsSkipped.WithLabelValues(source).Add(float64(n))
}

func (r *Recorder) RecordSourceFailure(source string) {
	if r == nil {
		return
	}
	r.sourceFailures.WithLabelValues(source).Inc()
}

func (r *Recorder) RecordClassification(outcome string) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordLatency(stage string, seconds float64) {
	if r == nil {
		return
	}
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}
