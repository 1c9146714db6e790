// Package metrics registers Prometheus collectors for the auth core.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Login outcome labels.
const (
	ResultSuccess     = "success"
	ResultFailure     = "failure"
	ResultRateLimited = "rate_limited"
)

// Metrics holds the auth core collectors. Construct once and inject;
// there is no package-level registration.
type Metrics struct {
	Logins      *prometheus.CounterVec
	Lockouts    prometheus.Counter
	TokenChecks *prometheus.CounterVec
	Revocations prometheus.Counter
}

// New creates and registers the collectors. A nil registerer falls back
// to the Prometheus default.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"result"}),
		Lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_lockouts_total",
			Help: "Identifiers locked out after repeated failures",
		}),
		TokenChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_checks_total",
			Help: "Token verifications by operation and outcome",
		}, []string{"op", "result"}),
		Revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_revocations_total",
			Help: "Tokens inserted into the revocation store",
		}),
	}

	reg.MustRegister(m.Logins, m.Lockouts, m.TokenChecks, m.Revocations)
	return m
}

// RegisterRevocationGauge exposes the revocation store's active entry
// count as a gauge sampled at scrape time.
func RegisterRevocationGauge(reg prometheus.Registerer, sample func() float64) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "auth_revoked_tokens",
		Help: "Active entries in the revocation store",
	}, sample))
}
