// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import "github.com/prometheus/client_golang/prometheus"

// Metrics contains Prometheus counters for auth operations.
type Metrics struct {
	RegistrationsTotal   prometheus.Counter
	LoginChecksTotal     *prometheus.CounterVec
	SessionsCreatedTotal prometheus.Counter
	SessionsEndedTotal   prometheus.Counter
	ResetsRequestedTotal prometheus.Counter
	ResetsRedeemedTotal  prometheus.Counter
}

// NewMetrics creates and registers auth metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatewarden_registrations_total",
			Help: "Total number of successful user registrations",
		}),
		LoginChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatewarden_login_checks_total",
				Help: "Total number of login validations by verdict",
			},
			[]string{"verdict"},
		),
		SessionsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatewarden_sessions_created_total",
			Help: "Total number of sessions issued",
		}),
		SessionsEndedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatewarden_sessions_ended_total",
			Help: "Total number of sessions destroyed",
		}),
		ResetsRequestedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatewarden_password_resets_requested_total",
			Help: "Total number of password reset tokens issued",
		}),
		ResetsRedeemedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatewarden_password_resets_redeemed_total",
			Help: "Total number of password resets completed",
		}),
	}

	reg.MustRegister(
		m.RegistrationsTotal,
		m.LoginChecksTotal,
		m.SessionsCreatedTotal,
		m.SessionsEndedTotal,
		m.ResetsRequestedTotal,
		m.ResetsRedeemedTotal,
	)

	return m
}

// loginVerdict labels for LoginChecksTotal.
const (
	verdictValid   = "valid"
	verdictInvalid = "invalid"
)
