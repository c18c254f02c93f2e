package ws

import (
	"context"
	"sync"

	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/Wyydra/rendezvous/internal/core/port"
	"github.com/rs/zerolog"
)

type registration struct {
	client port.Client
	ack    chan struct{}
}

// Hub keeps the connected sessions and delivers events to them.
// implements port.RealTimeGateway
type Hub struct {
	mu      sync.RWMutex
	clients map[domain.SessionID]port.Client

	register   chan registration
	unregister chan registration
	quit       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once

	metrics port.Metrics
	log     zerolog.Logger
}

func NewHub(metrics port.Metrics, log zerolog.Logger) *Hub {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &Hub{
		clients:    make(map[domain.SessionID]port.Client),
		register:   make(chan registration),
		unregister: make(chan registration),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
		metrics:    metrics,
		log:        log,
	}
}

func (h *Hub) Deliver(_ context.Context, to domain.SessionID, ev domain.Event) error {
	h.mu.RLock()
	c, ok := h.clients[to]
	h.mu.RUnlock()
	if !ok {
		return port.ErrSessionNotFound
	}
	return c.Send(ev)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for id, client := range h.clients {
				if err := client.Close(); err != nil {
					h.log.Debug().Err(err).Str("session_id", id.String()).Msg("Error closing client connection")
				}
				delete(h.clients, id)
				h.metrics.SessionClosed()
			}
			h.mu.Unlock()
			return

		case r := <-h.register:
			h.mu.Lock()
			h.clients[r.client.ID()] = r.client
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.SessionOpened()
			h.log.Debug().Int("count", n).Str("session_id", r.client.ID().String()).Msg("Client registered")
			close(r.ack)

		case r := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[r.client.ID()]
			delete(h.clients, r.client.ID())
			n := len(h.clients)
			h.mu.Unlock()
			if ok {
				h.metrics.SessionClosed()
				h.log.Debug().Int("count", n).Str("session_id", r.client.ID().String()).Msg("Client unregistered")
			}
			close(r.ack)
		}
	}
}

// Register returns once c can receive deliveries.
// It reports false when the hub is already stopped.
func (h *Hub) Register(c port.Client) bool {
	return h.exec(h.register, c)
}

func (h *Hub) Unregister(c port.Client) {
	h.exec(h.unregister, c)
}

func (h *Hub) exec(ch chan registration, c port.Client) bool {
	r := registration{client: c, ack: make(chan struct{})}
	select {
	case ch <- r:
	case <-h.stopped:
		return false
	}
	<-r.ack
	return true
}

// Stop closes every connection and waits for Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.stopped
}
