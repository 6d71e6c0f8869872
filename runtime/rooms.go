package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"sync"
	"time"

	"github.com/samber/lo"
)

type roomEntry struct {
	room    *domain.PrivateRoom
	members map[ConnectionID]*Connection
}

// RoomTable holds every open private room and the connections joined to each.
// Like Presence it is written by the reactor only.
type RoomTable struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomEntry
}

func NewRoomTable() *RoomTable {
	return &RoomTable{rooms: make(map[domain.RoomID]*roomEntry)}
}

// Create stores a new PENDING room between from and to.
func (t *RoomTable) Create(from, to domain.UserID) *domain.PrivateRoom {
	t.mu.Lock()
	defer t.mu.Unlock()
	room := domain.NewPrivateRoom(from, to, time.Now().UTC())
	t.rooms[room.ID] = &roomEntry{room: room, members: make(map[ConnectionID]*Connection)}
	return room
}

// Authorize is the room guard: the room must exist and identity must be one of its two participants.
// Every room-scoped operation goes through it first.
func (t *RoomTable) Authorize(identity domain.UserID, id domain.RoomID) (*domain.PrivateRoom, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.rooms[id]
	if !ok || !entry.room.HasParticipant(identity) {
		return nil, errors.ErrUnauthorizedRoom
	}
	return entry.room, nil
}

func (t *RoomTable) Get(id domain.RoomID) (*domain.PrivateRoom, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.rooms[id]
	if !ok {
		return nil, false
	}
	return entry.room, true
}

// Join adds conn to the delivery set of the room. Callers authorize first.
func (t *RoomTable) Join(id domain.RoomID, conn *Connection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.rooms[id]; ok {
		entry.members[conn.ID] = conn
	}
}

func (t *RoomTable) Members(id domain.RoomID) []*Connection {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.rooms[id]
	if !ok {
		return nil
	}
	return lo.Values(entry.members)
}

func (t *RoomTable) IsMember(id domain.RoomID, conn *Connection) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.rooms[id]
	if !ok {
		return false
	}
	_, ok = entry.members[conn.ID]
	return ok
}

// BothJoined reports whether each participant has at least one connection in the room.
// The bot never connects and is always considered joined.
func (t *RoomTable) BothJoined(id domain.RoomID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.rooms[id]
	if !ok {
		return false
	}
	joined := func(participant domain.UserID) bool {
		if participant == domain.BotUserID {
			return true
		}
		return lo.SomeBy(lo.Values(entry.members), func(c *Connection) bool {
			return c.UserID == participant
		})
	}
	return joined(entry.room.ParticipantA) && joined(entry.room.ParticipantB)
}

// JoinedBy lists the rooms conn has joined.
func (t *RoomTable) JoinedBy(conn *Connection) []*domain.PrivateRoom {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var rooms []*domain.PrivateRoom
	for _, entry := range t.rooms {
		if _, ok := entry.members[conn.ID]; ok {
			rooms = append(rooms, entry.room)
		}
	}
	return rooms
}

// PendingOf lists the PENDING rooms the user takes part in.
func (t *RoomTable) PendingOf(identity domain.UserID) []*domain.PrivateRoom {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var rooms []*domain.PrivateRoom
	for _, entry := range t.rooms {
		if entry.room.State == domain.RoomPending && entry.room.HasParticipant(identity) {
			rooms = append(rooms, entry.room)
		}
	}
	return rooms
}

// Leave removes conn from the delivery set of the room.
func (t *RoomTable) Leave(id domain.RoomID, conn *Connection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.rooms[id]; ok {
		delete(entry.members, conn.ID)
	}
}

// Discard forgets the room. Its identifier can never be authorized again.
func (t *RoomTable) Discard(id domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rooms, id)
}

func (t *RoomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}
