package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the task-reconciliation loop.
type Metrics struct {
	// Reconciliation outcomes
	Outcomes *prometheus.CounterVec
	// In-process retries on the not-yet-returned race
	Retries prometheus.Counter
}

// New creates a Metrics instance with all reconciliation metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dokflyt_task_reconciliations_total",
			Help: "Total task reconciliations by outcome",
		}, []string{"outcome"}), // outcome: "ok", "dropped", "failed"
		Retries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dokflyt_task_reconciliation_retries_total",
			Help: "Total in-process retries waiting for the return marker",
		}),
	}
}

// IncrementOutcomes records one reconciliation outcome.
func (m *Metrics) IncrementOutcomes(outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome).Inc()
	}
}

// IncrementRetries records one in-process retry.
func (m *Metrics) IncrementRetries() {
	if m != nil {
		m.Retries.Inc()
	}
}
