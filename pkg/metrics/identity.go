package metrics

import "github.com/prometheus/client_golang/prometheus"

// IdentityMetrics counts session identity transitions.
type IdentityMetrics struct {
	transitions *prometheus.CounterVec
}

// NewIdentityMetrics registers the identity transition counter.
func NewIdentityMetrics(reg prometheus.Registerer) *IdentityMetrics {
	if reg == nil {
		return &IdentityMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_transitions",
		Help: "Session identity transitions by kind.",
	}, []string{"kind"})
	reg.MustRegister(transitions)
	return &IdentityMetrics{transitions: transitions}
}

// Transition counts one transition of the given kind.
func (m *IdentityMetrics) Transition(kind string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(kind)).Inc()
}
