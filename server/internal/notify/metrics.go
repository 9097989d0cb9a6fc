package notify

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the notification core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	controlMessages *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
}

// NewMetrics registers the notification collectors with r. The connection
// gauges read reg on every scrape.
func NewMetrics(r prometheus.Registerer, reg *Registry) *Metrics {
	m := &Metrics{
		controlMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tableside_ws_control_messages_total",
			Help: "Inbound WebSocket control messages by kind (register, unknown, malformed).",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tableside_notifications_total",
			Help: "Notifications dispatched by target kind (users, roles, all).",
		}, []string{"target"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tableside_deliveries_total",
			Help: "Per-connection delivery attempts by result (queued, dropped).",
		}, []string{"result"}),
	}

	r.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tableside_ws_connections",
			Help: "Live WebSocket connections.",
		}, func() float64 { return float64(reg.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tableside_ws_registered_connections",
			Help: "Live WebSocket connections that have sent a register message.",
		}, func() float64 { return float64(reg.Stats().Registered) }),
		m.controlMessages,
		m.notifications,
		m.deliveries,
	)
	return m
}

func (m *Metrics) controlMessage(kind string) {
	if m == nil {
		return
	}
	m.controlMessages.WithLabelValues(kind).Inc()
}

func (m *Metrics) notification(target string, queued, dropped int) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(target).Inc()
	if queued > 0 {
		m.deliveries.WithLabelValues("queued").Add(float64(queued))
	}
	if dropped > 0 {
		m.deliveries.WithLabelValues("dropped").Add(float64(dropped))
	}
}
