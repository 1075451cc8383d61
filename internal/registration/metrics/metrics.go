package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the registration workflow.
type Metrics struct {
	WorkflowsStarted  *prometheus.CounterVec
	WorkflowsFinished *prometheus.CounterVec
	ActiveWorkflows   prometheus.Gauge
	Operations        *prometheus.CounterVec
	RemoteDuration    *prometheus.HistogramVec
	StaleResults      *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WorkflowsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_registration_started_total",
			Help: "Registration workflows created, by profile",
		}, []string{"profile"}),
		WorkflowsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_registration_finished_total",
			Help: "Registration workflows closed, by outcome (succeeded, discarded, expired)",
		}, []string{"outcome"}),
		ActiveWorkflows: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashwallet_registration_active",
			Help: "Registration workflows currently held in memory",
		}),
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_registration_operations_total",
			Help: "Controller operations by name and outcome",
		}, []string{"operation", "outcome"}),
		RemoteDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cashwallet_registration_remote_duration_seconds",
			Help:    "Duration of verification and account service calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		StaleResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_registration_stale_results_total",
			Help: "Remote results dropped because the workflow was discarded or the email changed",
		}, []string{"operation"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cashwallet_registration_breaker_state",
			Help: "Circuit breaker state per remote service (0 closed, 1 open, 2 half-open)",
		}, []string{"service"}),
	}
}

func (m *Metrics) IncStarted(profile string) {
	m.WorkflowsStarted.WithLabelValues(profile).Inc()
	m.ActiveWorkflows.Inc()
}

func (m *Metrics) IncFinished(outcome string) {
	m.WorkflowsFinished.WithLabelValues(outcome).Inc()
	m.ActiveWorkflows.Dec()
}

func (m *Metrics) IncOperation(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveRemote(operation string, d time.Duration) {
	m.RemoteDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) IncStale(operation string) {
	m.StaleResults.WithLabelValues(operation).Inc()
}

func (m *Metrics) SetBreakerState(service string, state int) {
	m.BreakerState.WithLabelValues(service).Set(float64(state))
}
