package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Wyydra/rendezvous/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// ServeWS upgrades the request and runs the session's read loop. Requests
// from one session are handled in arrival order. Any read error, including
// exceeding the rate limit, ends the session as an implicit leave of every
// room.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("Error while upgrading ws")
		return
	}

	client := ws.NewClient(conn, h.opts.Client, h.log)
	l := client.Log()
	if !h.Hub.Register(client) {
		l.Warn().Msg("Hub stopped, rejecting connection")
		_ = client.Close()
		return
	}
	l.Info().Str("remote", r.RemoteAddr).Msg("New client connected")

	// hijacked connections outlive the request context
	ctx := context.WithoutCancel(r.Context())

	defer func() {
		res := h.Relay.Disconnect(ctx, client.ID())
		h.Hub.Unregister(client)
		_ = client.Close()
		l.Info().Int("notified", res.SentTo).Msg("Client disconnected")
	}()

	go client.WritePump()
	client.PrepareRead(h.opts.MaxMessageSize)
	if err := client.Send(domain.NewWelcome(client.ID())); err != nil {
		return
	}

	var limiter *rate.Limiter
	if h.opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.opts.RateLimit), max(h.opts.RateBurst, 1))
	}

	for {
		data, err := client.ReadRequest()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Warn().Err(err).Msg("Unexpected close error")
			}
			return
		}
		if limiter != nil && !limiter.Allow() {
			l.Warn().Msg("Rate limit exceeded, closing connection")
			return
		}

		var req domain.Request
		if err := json.Unmarshal(data, &req); err != nil {
			l.Debug().Err(err).Msg("Malformed message")
			_ = client.Send(domain.NewError("malformed message"))
			continue
		}
		h.dispatch(ctx, client, req)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *ws.WSClient, req domain.Request) {
	switch req.Type {
	case domain.MessageJoinRoom, domain.MessageLeaveRoom, domain.MessageSignal:
	default:
		_ = client.Send(domain.NewError("unsupported message type: " + string(req.Type)))
		return
	}
	if req.Room == "" {
		l := client.Log()
		l.Debug().Str("type", string(req.Type)).Msg("Request without room ignored")
		return
	}

	var res domain.PublishResult
	switch req.Type {
	case domain.MessageJoinRoom:
		res = h.Relay.Join(ctx, req.Room, client.ID())
	case domain.MessageLeaveRoom:
		res = h.Relay.Leave(ctx, req.Room, client.ID())
	case domain.MessageSignal:
		res = h.Relay.Signal(ctx, req.Room, client.ID(), req.Payload)
	}
	if len(res.Dropped) > 0 {
		l := client.Log()
		l.Debug().Str("type", string(req.Type)).Int("dropped", len(res.Dropped)).Msg("Some recipients dropped")
	}
}
