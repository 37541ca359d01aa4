package eligibility

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricDecisions counts eligibility decisions by code and mode.
const MetricDecisions = "rank_eligibility_decisions_total"

// Metrics contains Prometheus metrics for the eligibility gate.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics creates unregistered gate metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDecisions,
			Help: "Total number of eligibility decisions by outcome code and mode (advisory or enforced)",
		}, []string{"code", "mode"}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	return reg.Register(m.decisions)
}

// IncDecision counts one decision.
func (m *Metrics) IncDecision(code, mode string) {
	m.decisions.WithLabelValues(code, mode).Inc()
}

// DecisionCounter returns the counter for one label pair (for testing).
func (m *Metrics) DecisionCounter(code, mode string) prometheus.Counter {
	return m.decisions.WithLabelValues(code, mode)
}
