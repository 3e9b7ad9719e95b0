package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prediction service's prometheus collectors.
type Metrics struct {
	Predictions        *prometheus.CounterVec
	PredictionErrors   *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	ModelLoads         *prometheus.CounterVec
	ModelLoadDuration  prometheus.Histogram
}

// NewMetrics registers the collectors on reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions served, by verdict",
		}, []string{"verdict"}),
		PredictionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed predictions, by error kind",
		}, []string{"kind"}),
		PredictionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time from record to verdict, model lookup included",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		ModelLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Model artifact loads, by result",
		}, []string{"result"}),
		ModelLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_load_duration_seconds",
			Help:      "Time taken to read and validate the model artifact",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObservePrediction records a served verdict.
func (m *Metrics) ObservePrediction(verdict string, took time.Duration) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(verdict).Inc()
	m.PredictionDuration.Observe(took.Seconds())
}

// ObserveError records a failed prediction.
func (m *Metrics) ObserveError(kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.PredictionErrors.WithLabelValues(kind).Inc()
	m.PredictionDuration.Observe(took.Seconds())
}

// ObserveModelLoad matches ml.LoadObserver.
func (m *Metrics) ObserveModelLoad(_ string, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ModelLoads.WithLabelValues(result).Inc()
	m.ModelLoadDuration.Observe(took.Seconds())
}
