// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine collectors. Built against an injected
// registry so tests get isolated instances.
type Metrics struct {
	Evaluations   *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	ActiveSignals prometheus.GaugeFunc
}

// New registers the collectors on reg. activeCount feeds the gauge and
// must report the registry's live (non-expired) count so the gauge
// matches the signal snapshot between sweeps.
func New(reg prometheus.Registerer, activeCount func() int) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalcore",
			Name:      "evaluations_total",
			Help:      "Instrument evaluations by outcome (signal, rejected, error).",
		}, []string{"outcome"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalcore",
			Name:      "rejections_total",
			Help:      "Rejected candidates by reason code.",
		}, []string{"reason"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "signalcore",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent per evaluation stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"stage"}),
		ActiveSignals: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "signalcore",
			Name:      "active_signals",
			Help:      "Signals currently live (non-expired) in the registry.",
		}, func() float64 { return float64(activeCount()) }),
	}
}
