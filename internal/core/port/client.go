package port

import (
	"errors"

	"github.com/Wyydra/rendezvous/internal/core/domain"
)

var (
	ErrClientClosed    = errors.New("client closed")
	ErrSendQueueFull   = errors.New("send queue full")
	ErrSessionNotFound = errors.New("session not found")
)

// Client is the transport end of one session.
// Send must not block; a full queue is reported with ErrSendQueueFull.
type Client interface {
	ID() domain.SessionID
	Send(ev domain.Event) error
	Close() error
}
