package port

import (
	"context"
	"encoding/json"
)

// RoomRecord is the durable description of a room kept by the room CRUD
// service. The signaling layer only ever uses ID as a routing key.
type RoomRecord struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name,omitempty"`
	Description     string `json:"description,omitempty"`
	MaxParticipants int    `json:"maxParticipants,omitempty"`
	IsPublic        bool   `json:"isPublic"`
}

// DirectoryResult mirrors the {success, message, data} envelope of the CRUD service.
type DirectoryResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// RoomDirectory is the external room CRUD collaborator.
type RoomDirectory interface {
	Create(ctx context.Context, room RoomRecord) (RoomRecord, error)
	List(ctx context.Context) ([]RoomRecord, error)
	Get(ctx context.Context, id string) (RoomRecord, error)
	Update(ctx context.Context, id string, room RoomRecord) (RoomRecord, error)
	Delete(ctx context.Context, id string) (string, error)
	Join(ctx context.Context, id string) (string, error)
	Leave(ctx context.Context, id string) (string, error)
}
