// Package metrics exposes relay activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signaling"

// Prometheus implements port.Metrics.
type Prometheus struct {
	sessions prometheus.Gauge
	rooms    prometheus.Gauge
	messages *prometheus.CounterVec
	dropped  prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. A nil reg gets a private registry,
// so tests and multiple servers in one process never collide.
func New(reg *prometheus.Registry) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Prometheus{
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Connected signaling sessions.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms with at least one member.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Events delivered to sessions, by type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_dropped_total",
			Help:      "Deliveries abandoned because the recipient was closed or stuck.",
		}),
		gatherer: reg,
	}
	for _, c := range []prometheus.Collector{m.sessions, m.rooms, m.messages, m.dropped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Prometheus) SessionOpened() { m.sessions.Inc() }
func (m *Prometheus) SessionClosed() { m.sessions.Dec() }
func (m *Prometheus) RoomCreated()   { m.rooms.Inc() }
func (m *Prometheus) RoomDeleted()   { m.rooms.Dec() }

func (m *Prometheus) MessageRelayed(t domain.MessageType, recipients int) {
	if recipients <= 0 {
		return
	}
	m.messages.WithLabelValues(string(t)).Add(float64(recipients))
}

func (m *Prometheus) DeliveryDropped(n int) {
	if n <= 0 {
		return
	}
	m.dropped.Add(float64(n))
}

// Handler serves the exposition format for the registry passed to New.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
