package memory

import (
	"sync"

	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/go4org/hashtriemap"
)

type room struct {
	mu      sync.Mutex
	members map[domain.SessionID]struct{}
	// dead is set under mu once the room has been unlinked from the registry.
	// Joiners that lose the race retry against a fresh room.
	dead bool
}

type sessionRooms struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]struct{}
	dead  bool
}

// Registry is an in-memory port.Registry.
// Every room is serialized by its own lock; there is no registry-wide lock.
// Calls concerning one session are expected to come from that session's
// read loop, one at a time.
type Registry struct {
	rooms    hashtriemap.HashTrieMap[domain.RoomID, *room]
	sessions hashtriemap.HashTrieMap[domain.SessionID, *sessionRooms]
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Join(id domain.RoomID, session domain.SessionID) domain.JoinResult {
	var res domain.JoinResult
	for {
		fresh := &room{members: make(map[domain.SessionID]struct{}, 2)}
		rm, loaded := r.rooms.LoadOrStore(id, fresh)
		rm.mu.Lock()
		if rm.dead {
			rm.mu.Unlock()
			continue
		}
		if _, ok := rm.members[session]; !ok {
			rm.members[session] = struct{}{}
			res.Added = true
		}
		res.Created = !loaded
		rm.mu.Unlock()
		break
	}
	if res.Added {
		r.track(session, id)
	}
	return res
}

func (r *Registry) Leave(id domain.RoomID, session domain.SessionID) domain.LeaveResult {
	res := r.remove(id, session)
	if res.Removed {
		r.untrack(session, id)
	}
	return res
}

// RemoveSessionFromAllRooms drops the session from every room it joined and
// reports each removal. Cost is bounded by the session's own room count.
func (r *Registry) RemoveSessionFromAllRooms(session domain.SessionID) []domain.LeaveResult {
	sr, ok := r.sessions.LoadAndDelete(session)
	if !ok {
		return nil
	}
	sr.mu.Lock()
	sr.dead = true
	ids := make([]domain.RoomID, 0, len(sr.rooms))
	for id := range sr.rooms {
		ids = append(ids, id)
	}
	sr.rooms = nil
	sr.mu.Unlock()

	left := make([]domain.LeaveResult, 0, len(ids))
	for _, id := range ids {
		if res := r.remove(id, session); res.Removed {
			left = append(left, res)
		}
	}
	return left
}

func (r *Registry) MembersOf(id domain.RoomID, exclude domain.SessionID) []domain.SessionID {
	rm, ok := r.rooms.Load(id)
	if !ok {
		return nil
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.dead {
		return nil
	}
	out := make([]domain.SessionID, 0, len(rm.members))
	for s := range rm.members {
		if s != exclude {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) remove(id domain.RoomID, session domain.SessionID) domain.LeaveResult {
	var res domain.LeaveResult
	rm, ok := r.rooms.Load(id)
	if !ok {
		return res
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.dead {
		return res
	}
	if _, ok := rm.members[session]; !ok {
		return res
	}
	delete(rm.members, session)
	res.Room = id
	res.Removed = true
	if len(rm.members) > 0 {
		res.Remaining = make([]domain.SessionID, 0, len(rm.members))
		for s := range rm.members {
			res.Remaining = append(res.Remaining, s)
		}
	} else {
		rm.dead = true
		r.rooms.CompareAndDelete(id, rm)
		res.Deleted = true
	}
	return res
}

func (r *Registry) track(session domain.SessionID, id domain.RoomID) {
	for {
		sr, _ := r.sessions.LoadOrStore(session, &sessionRooms{rooms: make(map[domain.RoomID]struct{}, 1)})
		sr.mu.Lock()
		if sr.dead {
			sr.mu.Unlock()
			continue
		}
		sr.rooms[id] = struct{}{}
		sr.mu.Unlock()
		return
	}
}

func (r *Registry) untrack(session domain.SessionID, id domain.RoomID) {
	sr, ok := r.sessions.Load(session)
	if !ok {
		return
	}
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.dead {
		return
	}
	delete(sr.rooms, id)
	if len(sr.rooms) == 0 {
		sr.dead = true
		r.sessions.CompareAndDelete(session, sr)
	}
}
