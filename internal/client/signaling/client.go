// Package signaling is the participant's connection to the signaling server.
package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var ErrClosed = errors.New("signaling connection closed")

// Client manages the WebSocket connection to the signaling server.
// implements negotiation.Signaler
type Client struct {
	conn     *websocket.Conn
	incoming chan domain.Event
	outgoing chan domain.Request
	done     chan struct{}
	flushed  chan struct{}
	once     sync.Once
	log      zerolog.Logger
}

// Dial connects to url. origin is sent as the Origin header when set.
func Dial(url, origin string, log zerolog.Logger) (*Client, error) {
	var hdr http.Header
	if origin != "" {
		hdr = http.Header{"Origin": []string{origin}}
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, hdr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	c := &Client{
		conn:     conn,
		incoming: make(chan domain.Event, 32),
		outgoing: make(chan domain.Request, 32),
		done:     make(chan struct{}),
		flushed:  make(chan struct{}),
		log:      log,
	}

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readPump()
	go c.writePump()
	return c, nil
}

// Incoming is closed when the connection ends.
func (c *Client) Incoming() <-chan domain.Event {
	return c.incoming
}

// Done is closed once Close has been called or the connection failed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) JoinRoom(room string) error {
	return c.send(domain.Request{Type: domain.MessageJoinRoom, Room: domain.RoomID(room)})
}

func (c *Client) LeaveRoom(room string) error {
	return c.send(domain.Request{Type: domain.MessageLeaveRoom, Room: domain.RoomID(room)})
}

func (c *Client) Signal(room string, payload json.RawMessage) error {
	return c.send(domain.Request{Type: domain.MessageSignal, Room: domain.RoomID(room), Payload: payload})
}

func (c *Client) send(req domain.Request) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.outgoing <- req:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Close writes out requests that were already accepted, sends a close frame
// and waits for the write side to finish.
func (c *Client) Close() {
	c.shutdown()
	<-c.flushed
}

func (c *Client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) readPump() {
	defer func() {
		c.shutdown()
		_ = c.conn.Close()
		close(c.incoming)
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	for {
		var ev domain.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("Signaling connection lost")
			}
			return
		}
		select {
		case c.incoming <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.flushed)
	}()

	for {
		select {
		case req := <-c.outgoing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(req); err != nil {
				c.shutdown()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}

		case <-c.done:
			if !c.drain() {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// drain writes whatever is still queued, typically a final leave-room.
func (c *Client) drain() bool {
	for {
		select {
		case req := <-c.outgoing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(req); err != nil {
				return false
			}
		default:
			return true
		}
	}
}
