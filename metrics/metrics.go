package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textanalysis_predictions_total",
		Help: "Total number of predictions served, by kind and status.",
	}, []string{"kind", "status"})

	StorageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textanalysis_prediction_storage_failures_total",
		Help: "Total number of failed reads or writes against the result tables.",
	}, []string{"kind", "op"})

	EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "textanalysis_prediction_events_published_total",
		Help: "Total number of prediction events published to Redis.",
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "textanalysis_inference_duration_seconds",
		Help:    "Duration of successful model server calls.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "textanalysis_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObservePrediction records the outcome of one prediction request.
func ObservePrediction(kind, status string, elapsedMs int64) {
	PredictionsTotal.WithLabelValues(kind, status).Inc()
	if status == "success" {
		InferenceDuration.WithLabelValues(kind).Observe(float64(elapsedMs) / 1000)
	}
}
