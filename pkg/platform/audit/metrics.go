package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit delivery.
type Metrics struct {
	Persisted       prometheus.Counter
	PersistFailures prometheus.Counter
	Dropped         prometheus.Counter
}

// NewMetrics creates a new Metrics instance with audit metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Persisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerguard_audit_events_persisted_total",
			Help: "Total number of audit events delivered to every sink",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerguard_audit_persist_failures_total",
			Help: "Total number of audit events that failed delivery to at least one sink",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledgerguard_audit_events_dropped_total",
			Help: "Total number of audit events dropped because the delivery queue was full",
		}),
	}
}

// IncPersisted increments the persisted counter.
func (m *Metrics) IncPersisted() {
	m.Persisted.Inc()
}

// IncPersistFailures increments the persist failures counter.
func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

// IncDropped increments the dropped events counter.
func (m *Metrics) IncDropped() {
	m.Dropped.Inc()
}
