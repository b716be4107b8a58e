package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromMetrics implements hub.Metrics on Prometheus collectors.
type PromMetrics struct {
	connectionsTotal    prometheus.Counter
	activeConnections   prometheus.Gauge
	eventsTotal         *prometheus.CounterVec
	broadcastRecipients prometheus.Histogram
	outboundDropped     prometheus.Counter
}

// NewPromMetrics registers the didlink collectors with reg. Pass
// prometheus.DefaultRegisterer outside tests.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	factory := promauto.With(reg)
	return &PromMetrics{
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "didlink",
			Name:      "connections_total",
			Help:      "Connections accepted since start.",
		}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "didlink",
			Name:      "active_connections",
			Help:      "Connections currently registered with the hub.",
		}),
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "didlink",
			Name:      "events_total",
			Help:      "Hub events processed, by kind.",
		}, []string{"kind"}),
		broadcastRecipients: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "didlink",
			Name:      "broadcast_recipients",
			Help:      "Recipients reached per broadcast line.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		outboundDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "didlink",
			Name:      "outbound_dropped_total",
			Help:      "Outbound messages dropped on saturated or dead clients.",
		}),
	}
}

func (m *PromMetrics) ClientJoined() {
	m.connectionsTotal.Inc()
	m.activeConnections.Inc()
}

func (m *PromMetrics) ClientLeft() {
	m.activeConnections.Dec()
}

func (m *PromMetrics) EventProcessed(kind string) {
	m.eventsTotal.WithLabelValues(kind).Inc()
}

func (m *PromMetrics) LineBroadcast(recipients int) {
	m.broadcastRecipients.Observe(float64(recipients))
}

func (m *PromMetrics) OutboundDropped() {
	m.outboundDropped.Inc()
}
