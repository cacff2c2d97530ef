// Package metrics exposes reconciliation counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Applied       prometheus.Counter
	Redelivered   prometheus.Counter
	Anomalies     *prometheus.CounterVec
	FetchFailures prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Applied: f.NewCounter(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "reconciliation",
			Name:      "outcomes_applied_total",
			Help:      "Acknowledgments that resolved a filed report.",
		}),
		Redelivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "reconciliation",
			Name:      "redelivered_total",
			Help:      "Acknowledgments re-seen after their report was already resolved.",
		}),
		Anomalies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "reconciliation",
			Name:      "anomalies_total",
			Help:      "Acknowledgments skipped as anomalies, by type.",
		}, []string{"type"}),
		FetchFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "reconciliation",
			Name:      "fetch_failures_total",
			Help:      "Ticks skipped because the acknowledgment feed was unreachable.",
		}),
	}
}
