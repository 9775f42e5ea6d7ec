package main

import (
	"time"

	"github.com/google/uuid"
)

// Room is a two-party ephemeral conversation container.
type Room struct {
	ID        string
	CreatedAt time.Time

	// Members in join order. Between 1 and 2 entries while the room
	// exists; the operation that would empty it destroys it instead.
	members []string
}

// Members returns a copy of the current member ids.
func (r *Room) Members() []string {
	out := make([]string, len(r.members))
	copy(out, r.members)
	return out
}

// RoomManager owns the room table. It has no locking of its own; all
// methods are called with the hub mutex held, keeping room membership and
// session state transitions atomic.
type RoomManager struct {
	rooms map[string]*Room
}

// NewRoomManager creates an empty room table.
func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[string]*Room)}
}

// create makes a new room holding both sessions. Room ids are uuids and
// are never reused; destruction is the only point that forgets an id.
func (rm *RoomManager) create(a, b string) *Room {
	room := &Room{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		members:   []string{a, b},
	}
	rm.rooms[room.ID] = room
	return room
}

// get returns the room or nil for a stale id.
func (rm *RoomManager) get(roomID string) *Room {
	return rm.rooms[roomID]
}

// removeMember takes the session out of the room's membership. Returns the
// remaining member ids and whether the session was actually a member. A
// room emptied by the removal is destroyed in the same call.
func (rm *RoomManager) removeMember(roomID, sessionID string) (remaining []string, ok bool) {
	room := rm.rooms[roomID]
	if room == nil {
		return nil, false
	}
	for i, id := range room.members {
		if id == sessionID {
			room.members = append(room.members[:i], room.members[i+1:]...)
			ok = true
			break
		}
	}
	if !ok {
		return nil, false
	}
	if len(room.members) == 0 {
		delete(rm.rooms, roomID)
	}
	return room.Members(), true
}

// destroy removes the room unconditionally. Idempotent for stale ids.
func (rm *RoomManager) destroy(roomID string) {
	delete(rm.rooms, roomID)
}

// partnerOf returns the other member of the room, if any.
func (rm *RoomManager) partnerOf(roomID, sessionID string) (string, bool) {
	room := rm.rooms[roomID]
	if room == nil {
		return "", false
	}
	for _, id := range room.members {
		if id != sessionID {
			return id, true
		}
	}
	return "", false
}

// count returns the number of live rooms.
func (rm *RoomManager) count() int {
	return len(rm.rooms)
}
