// Package metrics exposes notification counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Sent       *prometheus.CounterVec
	Suppressed *prometheus.CounterVec
	SendErrors *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "notification",
			Name:      "sent_total",
			Help:      "Notifications dispatched after claiming their checkpoint.",
		}, []string{"kind"}),
		Suppressed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "notification",
			Name:      "suppressed_total",
			Help:      "Sends skipped because the checkpoint was already claimed.",
		}, []string{"kind"}),
		SendErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deedflow",
			Subsystem: "notification",
			Name:      "send_errors_total",
			Help:      "Dispatch failures after the checkpoint was claimed.",
		}, []string{"kind"}),
	}
}
