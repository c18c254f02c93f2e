package ws

import (
	"sync"
	"time"

	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/Wyydra/rendezvous/internal/core/port"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type ClientOptions struct {
	// Time allowed to write a message to the peer.
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration
	// Outbound events buffered per session before it is considered stuck.
	SendQueue int
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		WriteWait: 10 * time.Second,
		PongWait:  60 * time.Second,
		SendQueue: 64,
	}
}

// pings must go out before the peer's read deadline expires
func (o ClientOptions) pingPeriod() time.Duration { return o.PongWait * 9 / 10 }

// WSClient is the server side of one participant connection.
// Writes are serialized by writePump; Send only enqueues.
type WSClient struct {
	id   domain.SessionID
	conn *websocket.Conn
	opts ClientOptions
	log  zerolog.Logger

	send chan domain.Event
	done chan struct{}
	once sync.Once
}

func NewClient(conn *websocket.Conn, opts ClientOptions, log zerolog.Logger) *WSClient {
	if opts.SendQueue <= 0 {
		opts.SendQueue = DefaultClientOptions().SendQueue
	}
	id := domain.NewSessionID()
	return &WSClient{
		id:   id,
		conn: conn,
		opts: opts,
		log:  log.With().Str("session_id", id.String()).Logger(),
		send: make(chan domain.Event, opts.SendQueue),
		done: make(chan struct{}),
	}
}

func (c *WSClient) ID() domain.SessionID {
	return c.id
}

func (c *WSClient) Log() zerolog.Logger {
	return c.log
}

// Send never blocks. A session whose queue is full is closed, the relay
// keeps going with the other members.
func (c *WSClient) Send(ev domain.Event) error {
	select {
	case <-c.done:
		return port.ErrClientClosed
	default:
	}
	select {
	case c.send <- ev:
		return nil
	case <-c.done:
		return port.ErrClientClosed
	default:
		c.log.Warn().Str("type", string(ev.Type)).Msg("Send queue full, closing connection")
		_ = c.Close()
		return port.ErrSendQueueFull
	}
}

func (c *WSClient) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Done is closed once the connection is closed.
func (c *WSClient) Done() <-chan struct{} {
	return c.done
}

// PrepareRead installs the read limit and the keepalive deadline handling.
func (c *WSClient) PrepareRead(maxMessageSize int64) {
	if maxMessageSize > 0 {
		c.conn.SetReadLimit(maxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})
}

// ReadRequest blocks until the next frame arrives. Only the read loop may call it.
func (c *WSClient) ReadRequest() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// WritePump pumps events from the send queue to the connection and keeps
// the connection alive with pings. There is at most one writer per connection.
func (c *WSClient) WritePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.log.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
