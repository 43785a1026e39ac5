package chat

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	ConnectedClients        prometheus.Gauge
	Rooms                   prometheus.Gauge
	EventsTotal             *prometheus.CounterVec
	RejectedConnections     prometheus.Counter
	DroppedFrames           prometheus.Counter
	EventProcessingDuration *prometheus.HistogramVec
}

// NewMetrics registers the chat collectors on reg. A nil reg gets a private
// registry so several servers can live in one process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_connected_clients",
			Help: "Number of currently connected clients",
		}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_rooms",
			Help: "Number of rooms, including empty ones",
		}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_events_total",
			Help: "Total events processed by type",
		}, []string{"type"}),
		RejectedConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_rejected_connections_total",
			Help: "Connections closed because the server was full",
		}),
		DroppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_dropped_frames_total",
			Help: "Outbound frames dropped because a client queue was full",
		}),
		EventProcessingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_event_processing_seconds",
			Help:    "Time to process each event type",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
	}
	reg.MustRegister(
		m.ConnectedClients,
		m.Rooms,
		m.EventsTotal,
		m.RejectedConnections,
		m.DroppedFrames,
		m.EventProcessingDuration,
	)
	return m
}
