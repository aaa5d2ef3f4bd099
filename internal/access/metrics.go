// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package access

import "github.com/prometheus/client_golang/prometheus"

// Decisions counts access checks by action and effect.
// Use RegisterMetrics to register this with a Prometheus registry.
var Decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "penwright_access_decisions_total",
	Help: "Total number of access checks by action and effect",
}, []string{"action", "effect"})

// RegisterMetrics registers access package metrics with the given registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Decisions)
}

func recordDecision(action string, allowed bool) {
	effect := "deny"
	if allowed {
		effect = "allow"
	}
	Decisions.WithLabelValues(action, effect).Inc()
}
