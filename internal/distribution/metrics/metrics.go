package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the distribution module.
type Metrics struct {
	// Distribution orders by channel and outcome
	Orders *prometheus.CounterVec

	// Corrected re-distributions after returns
	Redistributions prometheus.Counter
}

// New creates a Metrics instance with all distribution metrics registered.
func New() *Metrics {
	return &Metrics{
		Orders: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dokflyt_distribution_orders_total",
			Help: "Total distribution orders by channel and outcome",
		}, []string{"channel", "outcome"}), // outcome: "ordered", "duplicate", "rejected"

		Redistributions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dokflyt_distribution_redistributions_total",
			Help: "Total corrected re-distributions ordered after returns",
		}),
	}
}

// IncrementOrders records one distribution order outcome.
func (m *Metrics) IncrementOrders(channel, outcome string) {
	if m != nil {
		m.Orders.WithLabelValues(channel, outcome).Inc()
	}
}

// IncrementRedistributions records one corrected re-distribution.
func (m *Metrics) IncrementRedistributions() {
	if m != nil {
		m.Redistributions.Inc()
	}
}
