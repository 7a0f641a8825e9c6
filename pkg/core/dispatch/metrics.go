package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments analysis calls. A nil *Metrics records nothing.
type Metrics struct {
	analyses    *prometheus.CounterVec
	degradation *prometheus.CounterVec
	predictions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers the engine collectors on reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valuation_engine",
			Name:      "analyses_total",
			Help:      "Analyses run, by task, variant and outcome.",
		}, []string{"task", "variant", "outcome"}),
		degradation: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valuation_engine",
			Name:      "degraded_analyses_total",
			Help:      "Enhanced analyses that fell back to the simple variant.",
		}, []string{"task"}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valuation_engine",
			Name:      "predictions_total",
			Help:      "Model predictions merged into results, by model and outcome.",
		}, []string{"model", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "valuation_engine",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one analysis.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"task"}),
	}
}

func (m *Metrics) observe(task, variant string, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.analyses.WithLabelValues(task, variant, outcome).Inc()
	m.duration.WithLabelValues(task).Observe(elapsed.Seconds())
}

func (m *Metrics) degraded(task string) {
	if m != nil {
		m.degradation.WithLabelValues(task).Inc()
	}
}

func (m *Metrics) predicted(model string, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.predictions.WithLabelValues(model, outcome).Inc()
}
