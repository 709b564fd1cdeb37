package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome values recorded for every analysis.
const (
	OutcomeSuccess     = "success"
	OutcomeNoInput     = "no_input"
	OutcomeDecodeError = "decode_error"
	OutcomeInference   = "inference_error"
	OutcomeConfigError = "configuration_error"
)

type Metrics struct {
	registry    *prometheus.Registry
	analyses    *prometheus.CounterVec
	predictions *prometheus.CounterVec
	confidence  prometheus.Histogram
	latency     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wastesort",
			Name:      "analyses_total",
			Help:      "Image analyses by outcome.",
		}, []string{"outcome"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wastesort",
			Name:      "predictions_total",
			Help:      "Successful predictions by waste type.",
		}, []string{"label"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wastesort",
			Name:      "prediction_confidence",
			Help:      "Confidence of the top class.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wastesort",
			Name:      "stage_duration_seconds",
			Help:      "Time spent per pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.analyses,
		m.predictions,
		m.confidence,
		m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// The recording methods are no-ops on a nil receiver so callers can run
// without metrics.

func (m *Metrics) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Prediction(label string, confidence float32) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(label).Inc()
	m.confidence.Observe(float64(confidence))
}

func (m *Metrics) Stage(stage string, started time.Time) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
