// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package auth

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for AuthAttempts.
const (
	OutcomeSuccess        = "success"
	OutcomeDuplicateEmail = "duplicate_email"
	OutcomeUnknownUser    = "unknown_user"
	OutcomeWrongPassword  = "wrong_password"
	OutcomeInvalidInput   = "invalid_input"
	OutcomeError          = "error"
)

// AuthAttempts counts register and login attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "penwright_auth_attempts_total",
		Help: "Total number of register and login attempts by outcome",
	},
	[]string{"operation", "outcome"},
)

// RegisterMetrics registers auth package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthAttempts)
}

func recordAttempt(operation, outcome string) {
	AuthAttempts.WithLabelValues(operation, outcome).Inc()
}
