package domain

import "encoding/json"

type MessageType string

// client -> server
const (
	MessageJoinRoom  MessageType = "join-room"
	MessageLeaveRoom MessageType = "leave-room"
	MessageSignal    MessageType = "signal"
)

// server -> client
const (
	MessageWelcome    MessageType = "welcome"
	MessageUserJoined MessageType = "user-joined"
	MessageUserLeft   MessageType = "user-left"
	MessageError      MessageType = "error"
)

// Request is a message sent by a participant to the server.
type Request struct {
	Type    MessageType     `json:"type"`
	Room    RoomID          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is a message pushed by the server to a participant.
// Payload is relayed verbatim and never inspected by the server.
type Event struct {
	Type            MessageType     `json:"type"`
	Room            RoomID          `json:"room,omitempty"`
	SessionID       SessionID       `json:"sessionId,omitempty"`
	SenderSessionID SessionID       `json:"senderSessionId,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	Message         string          `json:"message,omitempty"`
}

func NewWelcome(self SessionID) Event {
	return Event{Type: MessageWelcome, SessionID: self}
}

func NewUserJoined(room RoomID, who SessionID) Event {
	return Event{Type: MessageUserJoined, Room: room, SessionID: who}
}

func NewUserLeft(room RoomID, who SessionID) Event {
	return Event{Type: MessageUserLeft, Room: room, SessionID: who}
}

func NewSignal(room RoomID, sender SessionID, payload json.RawMessage) Event {
	return Event{Type: MessageSignal, Room: room, SenderSessionID: sender, Payload: payload}
}

func NewError(msg string) Event {
	return Event{Type: MessageError, Message: msg}
}
