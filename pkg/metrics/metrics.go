// Package metrics exposes Prometheus metrics for the channel server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lumen"

// Label names
const (
	LabelType   = "type"
	LabelOpcode = "opcode"
)

// TickBuckets covers ticks from well under a millisecond up to a badly
// overrunning 33ms tick.
var TickBuckets = []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1}

// Metrics holds the server's collectors on a private registry, so tests can
// create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	tickDuration      prometheus.Histogram
	propertiesEmitted *prometheus.CounterVec
	syncErrors        *prometheus.CounterVec
	packetsSent       *prometheus.CounterVec
	bytesSent         prometheus.Counter
	sessions          prometheus.Gauge
	entities          *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "tick_duration_seconds",
			Help:      "Time spent running systems and building packets for one tick.",
			Buckets:   TickBuckets,
		}),
		propertiesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "properties_emitted_total",
			Help:      "Changed properties written to delta packets.",
		}, []string{LabelType}),
		syncErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "errors_total",
			Help:      "Property synchronizations that failed.",
		}, []string{LabelType}),
		packetsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "packets_sent_total",
			Help:      "Packets queued to sessions.",
		}, []string{LabelOpcode}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "bytes_sent_total",
			Help:      "Bytes queued to sessions.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "sessions",
			Help:      "Logged in sessions.",
		}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "entities",
			Help:      "Entities in the world.",
		}, []string{LabelType}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tickDuration,
		m.propertiesEmitted,
		m.syncErrors,
		m.packetsSent,
		m.bytesSent,
		m.sessions,
		m.entities,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveTick(d time.Duration) {
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) PropertiesEmitted(typeName string, n int) {
	if n > 0 {
		m.propertiesEmitted.WithLabelValues(typeName).Add(float64(n))
	}
}

func (m *Metrics) SyncError(typeName string) {
	m.syncErrors.WithLabelValues(typeName).Inc()
}

func (m *Metrics) PacketSent(opcode string, size int) {
	m.packetsSent.WithLabelValues(opcode).Inc()
	m.bytesSent.Add(float64(size))
}

func (m *Metrics) SessionOpened() { m.sessions.Inc() }

func (m *Metrics) SessionClosed() { m.sessions.Dec() }

func (m *Metrics) EntityAdded(typeName string) { m.entities.WithLabelValues(typeName).Inc() }

func (m *Metrics) EntityRemoved(typeName string) { m.entities.WithLabelValues(typeName).Dec() }
