// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth

import "github.com/prometheus/client_golang/prometheus"

// Metrics contains Prometheus counters for authentication activity.
// All AuthService metric hooks are nil-safe, so metrics are strictly
// opt-in: pass a Metrics value via WithMetrics to enable them.
type Metrics struct {
	LoginAttempts      *prometheus.CounterVec
	TokensIssued       prometheus.Counter
	TokenVerifications *prometheus.CounterVec
}

// Login attempt statuses recorded on the LoginAttempts counter.
const (
	loginStatusSuccess = "success"
	loginStatusFailure = "failure"
)

// Token verification results recorded on the TokenVerifications counter.
const (
	verifyResultValid   = "valid"
	verifyResultExpired = "expired"
	verifyResultInvalid = "invalid"
)

// NewMetrics creates and registers the authentication metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stormstack_auth_login_attempts_total",
				Help: "Total number of login attempts by status",
			},
			[]string{"status"},
		),
		TokensIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stormstack_auth_tokens_issued_total",
				Help: "Total number of tokens issued (login and refresh)",
			},
		),
		TokenVerifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stormstack_auth_token_verifications_total",
				Help: "Total number of token verifications by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.LoginAttempts)
	reg.MustRegister(m.TokensIssued)
	reg.MustRegister(m.TokenVerifications)

	return m
}

func (m *Metrics) recordLogin(success bool) {
	if m == nil {
		return
	}
	status := loginStatusFailure
	if success {
		status = loginStatusSuccess
	}
	m.LoginAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) recordTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}

func (m *Metrics) recordVerification(result string) {
	if m == nil {
		return
	}
	m.TokenVerifications.WithLabelValues(result).Inc()
}
