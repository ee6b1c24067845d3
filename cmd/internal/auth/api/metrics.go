package authapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts auth outcomes. All methods are nil-safe so the handler can
// run without metrics in tests.
type Metrics struct {
	logins      *prometheus.CounterVec
	validations *prometheus.CounterVec
	revocations prometheus.Counter
}

// NewMetrics registers auth counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minder",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minder",
			Subsystem: "auth",
			Name:      "session_validations_total",
			Help:      "Session validations by outcome.",
		}, []string{"outcome"}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "minder",
			Subsystem: "auth",
			Name:      "session_revocations_total",
			Help:      "Sessions revoked via logout or password change.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.logins, m.validations, m.revocations)
	}
	return m
}

func (m *Metrics) login(outcome string) {
	if m != nil {
		m.logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) validation(outcome string) {
	if m != nil {
		m.validations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) revocation() {
	if m != nil {
		m.revocations.Inc()
	}
}
