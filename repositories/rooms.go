package repositories

import (
	"sync"

	"roomchat/domain"

	"github.com/samber/lo"
)

// RoomDirectory is the set of known rooms. It is an explicitly owned instance
// injected into every component that needs it, never ambient global state.
// Membership changes are rare (administrative seeding), so a single lock over
// the name map is enough; each room guards its own log independently.
type RoomDirectory struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{rooms: make(map[string]*domain.Room)}
}

// Create registers a room. Creating an already known room is a no-op.
func (d *RoomDirectory) Create(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.rooms[name]; ok {
		return
	}
	d.rooms[name] = domain.NewRoom(name)
}

// Exists reports whether a room is known. Lookup is by exact name only.
func (d *RoomDirectory) Exists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[name]
	return ok
}

// List returns the known room names, in no particular order.
func (d *RoomDirectory) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.Keys(d.rooms)
}

// Log returns a copy of a room's message log in insertion order,
// or an empty slice when the room is unknown.
func (d *RoomDirectory) Log(name string) []domain.Message {
	room, ok := d.find(name)
	if !ok {
		return []domain.Message{}
	}
	return room.Messages()
}

func (d *RoomDirectory) find(name string) (*domain.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[name]
	return room, ok
}
