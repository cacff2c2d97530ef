// Package metrics exposes report lifecycle counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Transitions     *prometheus.CounterVec
	GuardViolations *prometheus.CounterVec
	StaleStateLost  prometheus.Counter
	Filed           prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "report",
			Name:      "transitions_total",
			Help:      "Report status transitions applied, by destination status.",
		}, []string{"to"}),
		GuardViolations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "report",
			Name:      "guard_violations_total",
			Help:      "Transition attempts rejected by a guard, by guard name.",
		}, []string{"guard"}),
		StaleStateLost: f.NewCounter(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "report",
			Name:      "stale_state_total",
			Help:      "Conditional status writes lost to a concurrent transition.",
		}),
		Filed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "report",
			Name:      "filed_total",
			Help:      "Reports handed to the filing channel.",
		}),
	}
}
