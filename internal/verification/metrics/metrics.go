package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts one-time code issuance and checks.
type Metrics struct {
	CodesSent     *prometheus.CounterVec
	CodesVerified *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CodesSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_verification_codes_sent_total",
			Help: "One-time code requests by outcome (sent, invalid_email, cooldown, delivery_failed)",
		}, []string{"outcome"}),
		CodesVerified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_verification_codes_checked_total",
			Help: "One-time code checks by outcome (verified, mismatch, expired, missing, exhausted)",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncSent(outcome string) {
	m.CodesSent.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncChecked(outcome string) {
	m.CodesVerified.WithLabelValues(outcome).Inc()
}
