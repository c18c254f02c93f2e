package ws

import (
	"context"
	"sync"
	"testing"

	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/Wyydra/rendezvous/internal/core/port"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	id domain.SessionID

	mu     sync.Mutex
	got    []domain.Event
	closed bool
}

func (c *stubClient) ID() domain.SessionID { return c.id }

func (c *stubClient) Send(ev domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return port.ErrClientClosed
	}
	c.got = append(c.got, ev)
	return nil
}

func (c *stubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil, zerolog.Nop())
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func TestHubDeliver(t *testing.T) {
	h := startHub(t)
	a := &stubClient{id: "a"}
	require.True(t, h.Register(a))
	assert.Equal(t, 1, h.Len())

	ev := domain.NewUserJoined("r", "b")
	require.NoError(t, h.Deliver(context.Background(), "a", ev))
	assert.Equal(t, []domain.Event{ev}, a.got)

	err := h.Deliver(context.Background(), "nobody", ev)
	assert.ErrorIs(t, err, port.ErrSessionNotFound)
}

func TestHubUnregister(t *testing.T) {
	h := startHub(t)
	a := &stubClient{id: "a"}
	require.True(t, h.Register(a))
	h.Unregister(a)
	h.Unregister(a)

	assert.Equal(t, 0, h.Len())
	assert.ErrorIs(t, h.Deliver(context.Background(), "a", domain.NewError("x")), port.ErrSessionNotFound)
	assert.False(t, a.closed, "unregister leaves closing to the connection owner")
}

func TestHubStopClosesClients(t *testing.T) {
	h := NewHub(nil, zerolog.Nop())
	go h.Run()

	a := &stubClient{id: "a"}
	b := &stubClient{id: "b"}
	require.True(t, h.Register(a))
	require.True(t, h.Register(b))

	h.Stop()
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.Register(&stubClient{id: "c"}))
}
