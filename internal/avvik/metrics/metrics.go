package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the deviation module.
type Metrics struct {
	// Deviation executions by kind and outcome
	Deviations *prometheus.CounterVec
}

// New creates a Metrics instance with all deviation metrics registered.
func New() *Metrics {
	return &Metrics{
		Deviations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dokflyt_deviations_total",
			Help: "Total deviation executions by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: "ok", "rejected", "failed"
	}
}

// IncrementDeviations records one deviation execution outcome.
func (m *Metrics) IncrementDeviations(kind, outcome string) {
	if m != nil {
		m.Deviations.WithLabelValues(kind, outcome).Inc()
	}
}
