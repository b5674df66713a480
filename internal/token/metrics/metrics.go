package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the token front door.
// Tracks restriction outcomes, escrow transitions and operation latency.
type Metrics struct {
	RestrictionOutcomes *prometheus.CounterVec
	ProposalTransitions *prometheus.CounterVec
	RoleChanges         *prometheus.CounterVec
	OperationFailures   *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the token metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RestrictionOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerguard_restriction_outcomes_total",
			Help: "Transfer restriction evaluations by resulting code",
		}, []string{"code"}),
		ProposalTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerguard_proposal_transitions_total",
			Help: "Escrow proposal state transitions by target state",
		}, []string{"state"}),
		RoleChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerguard_role_changes_total",
			Help: "Role grants and revocations",
		}, []string{"role", "change"}),
		OperationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerguard_operation_failures_total",
			Help: "Failed state-changing operations by error code",
		}, []string{"operation", "code"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledgerguard_operation_duration_seconds",
			Help:    "Duration of state-changing operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncRestrictionOutcome(code string) {
	if m == nil {
		return
	}
	m.RestrictionOutcomes.WithLabelValues(code).Inc()
}

func (m *Metrics) IncProposalTransition(state string) {
	if m == nil {
		return
	}
	m.ProposalTransitions.WithLabelValues(state).Inc()
}

// IncRoleChange records a grant ("added") or revocation ("removed").
func (m *Metrics) IncRoleChange(role, change string) {
	if m == nil {
		return
	}
	m.RoleChanges.WithLabelValues(role, change).Inc()
}

func (m *Metrics) IncOperationFailure(operation, code string) {
	if m == nil {
		return
	}
	m.OperationFailures.WithLabelValues(operation, code).Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
