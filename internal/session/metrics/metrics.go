package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the session lifecycle.
type Metrics struct {
	SessionsStarted *prometheus.CounterVec
	SessionsEnded   *prometheus.CounterVec
	AuthFailures    prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_sessions_started_total",
			Help: "Sessions started by origin (registration, login)",
		}, []string{"origin"}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_sessions_ended_total",
			Help: "Sessions ended by reason (logout, logout_all, expired)",
		}, []string{"reason"}),
		AuthFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cashwallet_session_auth_failures_total",
			Help: "Requests rejected because the token or its session was not valid",
		}),
	}
}

func (m *Metrics) IncStarted(origin string) {
	m.SessionsStarted.WithLabelValues(origin).Inc()
}

func (m *Metrics) AddEnded(reason string, n int) {
	m.SessionsEnded.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) IncAuthFailure() {
	m.AuthFailures.Inc()
}
