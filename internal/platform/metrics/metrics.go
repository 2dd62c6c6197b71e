package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Registrations      prometheus.Counter
	LoginSuccess       prometheus.Counter
	LoginFailure       *prometheus.CounterVec
	AccountsLocked     prometheus.Counter
	AdminActions       *prometheus.CounterVec
	AuditWriteFailures prometheus.Counter
	EndpointLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_registrations_total",
			Help: "Total number of accounts registered",
		}),
		LoginSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_login_success_total",
			Help: "Total number of successful logins",
		}),
		LoginFailure: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_login_failure_total",
			Help: "Total number of rejected logins, labeled by reason",
		}, []string{"reason"}),
		AccountsLocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_accounts_locked_total",
			Help: "Total number of lockout transitions triggered by repeated failures",
		}),
		AdminActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_admin_actions_total",
			Help: "Total number of administrator operations, labeled by action",
		}, []string{"action"}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_audit_write_failures_total",
			Help: "Total number of audit events that could not be persisted",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatekeeper_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// Nil-safe increment helpers: services treat metrics as optional wiring.

func (m *Metrics) IncrementRegistrations() {
	if m != nil {
		m.Registrations.Inc()
	}
}

func (m *Metrics) IncrementLoginSuccess() {
	if m != nil {
		m.LoginSuccess.Inc()
	}
}

func (m *Metrics) IncrementLoginFailure(reason string) {
	if m != nil {
		m.LoginFailure.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementAccountsLocked() {
	if m != nil {
		m.AccountsLocked.Inc()
	}
}

func (m *Metrics) IncrementAdminAction(action string) {
	if m != nil {
		m.AdminActions.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncrementAuditWriteFailures() {
	if m != nil {
		m.AuditWriteFailures.Inc()
	}
}

// ObserveEndpointLatency records request latency for an endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, seconds float64) {
	if m != nil {
		m.EndpointLatency.WithLabelValues(endpoint).Observe(seconds)
	}
}
