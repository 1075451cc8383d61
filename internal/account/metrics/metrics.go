package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts account creation, logins and welcome mail delivery.
type Metrics struct {
	AccountsCreated *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	WelcomeMails    *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AccountsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_accounts_created_total",
			Help: "Account creation requests by outcome (created, duplicate, unverified, invalid, internal_error)",
		}, []string{"outcome"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_account_logins_total",
			Help: "Password checks by outcome (ok, rejected)",
		}, []string{"outcome"}),
		WelcomeMails: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashwallet_account_welcome_mails_total",
			Help: "Welcome mails sent for account.created events by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncCreated(outcome string) {
	m.AccountsCreated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncWelcome(outcome string) {
	m.WelcomeMails.WithLabelValues(outcome).Inc()
}
