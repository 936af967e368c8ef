package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what crosses the client's connection. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	FramesReceived  *prometheus.CounterVec
	FramesMalformed prometheus.Counter
	FramesUnknown   prometheus.Counter
	ActionsSent     *prometheus.CounterVec
	ActionsDropped  *prometheus.CounterVec
	Connections     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptparty",
			Subsystem: "client",
			Name:      "frames_received_total",
			Help:      "Server frames routed to a reducer, by kind.",
		}, []string{"kind"}),
		FramesMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "promptparty",
			Subsystem: "client",
			Name:      "frames_malformed_total",
			Help:      "Server frames that failed to parse.",
		}),
		FramesUnknown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "promptparty",
			Subsystem: "client",
			Name:      "frames_unknown_total",
			Help:      "Server frames with a kind this client does not handle.",
		}),
		ActionsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptparty",
			Subsystem: "client",
			Name:      "actions_sent_total",
			Help:      "Player actions queued for the server, by kind.",
		}, []string{"kind"}),
		ActionsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptparty",
			Subsystem: "client",
			Name:      "actions_dropped_total",
			Help:      "Player actions dropped before reaching the transport, by kind and reason.",
		}, []string{"kind", "reason"}),
		Connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptparty",
			Subsystem: "client",
			Name:      "connections_total",
			Help:      "Connection attempts, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.FramesReceived,
		m.FramesMalformed,
		m.FramesUnknown,
		m.ActionsSent,
		m.ActionsDropped,
		m.Connections,
	)
	return m
}

func (m *Metrics) FrameReceived(kind string) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) FrameMalformed() {
	if m == nil {
		return
	}
	m.FramesMalformed.Inc()
}

// FrameUnknown is unlabeled: the kind comes from the server and is
// unbounded.
func (m *Metrics) FrameUnknown() {
	if m == nil {
		return
	}
	m.FramesUnknown.Inc()
}

func (m *Metrics) ActionSent(kind string) {
	if m == nil {
		return
	}
	m.ActionsSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) ActionDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.ActionsDropped.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) Connection(outcome string) {
	if m == nil {
		return
	}
	m.Connections.WithLabelValues(outcome).Inc()
}
