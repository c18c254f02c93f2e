package port

import "github.com/Wyydra/rendezvous/internal/core/domain"

// Registry tracks which sessions are currently joined to which rooms.
// A room exists iff it has at least one member.
type Registry interface {
	Join(room domain.RoomID, session domain.SessionID) domain.JoinResult
	Leave(room domain.RoomID, session domain.SessionID) domain.LeaveResult
	RemoveSessionFromAllRooms(session domain.SessionID) []domain.LeaveResult
	MembersOf(room domain.RoomID, exclude domain.SessionID) []domain.SessionID
}
