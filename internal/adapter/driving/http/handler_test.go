package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Wyydra/rendezvous/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/rendezvous/internal/adapter/driven/metrics"
	"github.com/Wyydra/rendezvous/internal/adapter/driven/registry/memory"
	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/Wyydra/rendezvous/internal/core/service"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 2 * time.Second

type testServer struct {
	*httptest.Server
	hub      *ws.Hub
	registry *memory.Registry
	handler  *Handler
}

func newTestServer(t *testing.T, opts Options, relayOpts service.RelayOptions) *testServer {
	t.Helper()
	log := zerolog.Nop()
	m, err := metrics.New(nil)
	require.NoError(t, err)

	hub := ws.NewHub(m, log)
	go hub.Run()
	registry := memory.NewRegistry()
	relay := service.NewRelayService(registry, hub, m, relayOpts, log)
	h := NewHandler(relay, hub, m.Handler(), opts, log)

	srv := httptest.NewServer(h.NewRouter())
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return &testServer{Server: srv, hub: hub, registry: registry, handler: h}
}

func (s *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

// waitMembers blocks until room has n members. Sessions are served by
// independent read loops, so tests order their joins through this.
func (s *testServer) waitMembers(t *testing.T, room domain.RoomID, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(s.registry.MembersOf(room, "")) == n
	}, readTimeout, 5*time.Millisecond)
}

type peer struct {
	t      *testing.T
	conn   *websocket.Conn
	id     domain.SessionID
	events chan domain.Event
}

// dial connects and consumes the welcome event.
func (s *testServer) dial(t *testing.T) *peer {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	p := &peer{t: t, conn: conn, events: make(chan domain.Event, 16)}
	go func() {
		defer close(p.events)
		for {
			var ev domain.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			p.events <- ev
		}
	}()

	ev := p.read()
	require.Equal(t, domain.MessageWelcome, ev.Type)
	require.NotEmpty(t, ev.SessionID)
	p.id = ev.SessionID
	return p
}

func (p *peer) send(v any) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteJSON(v))
}

func (p *peer) read() domain.Event {
	p.t.Helper()
	select {
	case ev, ok := <-p.events:
		require.True(p.t, ok, "connection closed")
		return ev
	case <-time.After(readTimeout):
		p.t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

// expectSilence fails if any event arrives within d.
func (p *peer) expectSilence(d time.Duration) {
	p.t.Helper()
	select {
	case ev, ok := <-p.events:
		if ok {
			p.t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(d):
	}
}

func (p *peer) join(room string) {
	p.send(map[string]string{"type": "join-room", "room": room})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, DefaultOptions(), service.RelayOptions{})
	s.handler.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	resp, err := http.Get(s.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "OK", "timestamp": "2024-05-01T12:00:00Z"}, body)
}

func TestScenario(t *testing.T) {
	s := newTestServer(t, DefaultOptions(), service.RelayOptions{})
	a := s.dial(t)
	b := s.dial(t)
	assert.NotEqual(t, a.id, b.id)

	a.join("r1")
	s.waitMembers(t, "r1", 1)
	a.expectSilence(100 * time.Millisecond)

	b.join("r1")
	ev := a.read()
	assert.Equal(t, domain.NewUserJoined("r1", b.id), ev)
	b.expectSilence(100 * time.Millisecond)

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	a.send(map[string]any{"type": "signal", "room": "r1", "payload": offer})
	ev = b.read()
	assert.Equal(t, domain.MessageSignal, ev.Type)
	assert.Equal(t, a.id, ev.SenderSessionID)
	assert.Equal(t, domain.RoomID("r1"), ev.Room)
	assert.JSONEq(t, string(offer), string(ev.Payload))
	a.expectSilence(100 * time.Millisecond)

	// B drops without leaving
	require.NoError(t, b.conn.Close())
	ev = a.read()
	assert.Equal(t, domain.NewUserLeft("r1", b.id), ev)
}

func TestRoomsAreIsolated(t *testing.T) {
	s := newTestServer(t, DefaultOptions(), service.RelayOptions{})
	a := s.dial(t)
	b := s.dial(t)
	c := s.dial(t)

	a.join("r1")
	s.waitMembers(t, "r1", 1)
	b.join("r1")
	a.read()
	c.join("r2")
	s.waitMembers(t, "r2", 1)

	a.send(map[string]any{"type": "signal", "room": "r1", "payload": map[string]int{"n": 1}})
	assert.Equal(t, a.id, b.read().SenderSessionID)
	c.expectSilence(150 * time.Millisecond)
}

func TestLeaveRoom(t *testing.T) {
	s := newTestServer(t, DefaultOptions(), service.RelayOptions{})
	a := s.dial(t)
	b := s.dial(t)

	a.join("r1")
	s.waitMembers(t, "r1", 1)
	b.join("r1")
	a.read()

	b.send(map[string]string{"type": "leave-room", "room": "r1"})
	assert.Equal(t, domain.NewUserLeft("r1", b.id), a.read())

	// leaving again is a no-op
	b.send(map[string]string{"type": "leave-room", "room": "r1"})
	a.expectSilence(100 * time.Millisecond)
}

func TestErrorReplies(t *testing.T) {
	s := newTestServer(t, DefaultOptions(), service.RelayOptions{})
	a := s.dial(t)

	require.NoError(t, a.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	ev := a.read()
	assert.Equal(t, domain.MessageError, ev.Type)
	assert.Equal(t, "malformed message", ev.Message)

	a.send(map[string]string{"type": "dance"})
	ev = a.read()
	assert.Equal(t, domain.MessageError, ev.Type)
	assert.Contains(t, ev.Message, "dance")

	a.send(map[string]string{"type": "join-room"})
	a.send(map[string]string{"type": "signal"})
	a.expectSilence(100 * time.Millisecond)
	assert.Empty(t, s.registry.MembersOf("", ""))

	// still usable afterwards
	b := s.dial(t)
	a.join("r")
	s.waitMembers(t, "r", 1)
	b.join("r")
	assert.Equal(t, b.id, a.read().SessionID)
}

func TestRequireMembership(t *testing.T) {
	s := newTestServer(t, DefaultOptions(), service.RelayOptions{RequireMembership: true})
	a := s.dial(t)
	outsider := s.dial(t)

	a.join("r1")
	s.waitMembers(t, "r1", 1)
	outsider.send(map[string]any{"type": "signal", "room": "r1", "payload": "x"})
	a.expectSilence(150 * time.Millisecond)
}

func TestOriginAllowlist(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowedOrigins = []string{"https://app.example"}
	s := newTestServer(t, opts, service.RelayOptions{})

	hdr := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(s.wsURL(), hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	hdr.Set("Origin", "https://app.example")
	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL(), hdr)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestRateLimitClosesConnection(t *testing.T) {
	opts := DefaultOptions()
	opts.RateLimit = 1
	opts.RateBurst = 2
	s := newTestServer(t, opts, service.RelayOptions{})
	a := s.dial(t)
	b := s.dial(t)

	a.join("r")
	s.waitMembers(t, "r", 1)
	b.join("r")
	a.read()

	for i := 0; i < 5; i++ {
		_ = b.conn.WriteJSON(map[string]string{"type": "leave-room", "room": "none"})
	}
	// b is cut off and a learns it left
	assert.Equal(t, domain.NewUserLeft("r", b.id), a.read())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultOptions(), service.RelayOptions{})
	s.dial(t)

	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	resp, err := http.Get(s.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var sb strings.Builder
	_, _ = io.Copy(&sb, resp.Body)
	assert.Contains(t, sb.String(), "signaling_sessions 1")
}
