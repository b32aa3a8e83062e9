// Package observability exposes Prometheus metrics for the realtime core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "chat"
	subsystem = "realtime"
)

// Metrics groups the counters and gauges the realtime layer reports.
// Construct one per process with NewMetrics and share it by reference.
type Metrics struct {
	ActiveSessions      *prometheus.GaugeVec
	FanoutDeliveries    *prometheus.CounterVec
	FanoutFailures      *prometheus.CounterVec
	InboundFrames       *prometheus.CounterVec
	AdmissionRejections *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_sessions",
			Help:      "Live sessions currently registered, by channel kind.",
		}, []string{"channel_kind"}),
		FanoutDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fanout_deliveries_total",
			Help:      "Payloads successfully handed to a session send buffer.",
		}, []string{"channel_kind"}),
		FanoutFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fanout_failures_total",
			Help:      "Sends that failed and scheduled the session's removal.",
		}, []string{"channel_kind"}),
		InboundFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbound_frames_total",
			Help:      "Text frames received on room sockets.",
		}, []string{"channel_kind"}),
		AdmissionRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "admission_rejections_total",
			Help:      "Connection upgrades refused before registration.",
		}, []string{"reason"}),
	}
}
