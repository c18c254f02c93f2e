package domain

import (
	"github.com/google/uuid"
)

// SessionID identifies one live connection. It is assigned by the server
// and never reused.
type SessionID string

// RoomID is the client supplied routing key of a room.
type RoomID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func (id SessionID) String() string {
	return string(id)
}

func (id RoomID) String() string {
	return string(id)
}
