package domain

import "sync"

// Room is a named channel owning its ordered message log exclusively.
// Rooms are created administratively and never deleted; the log can be
// cleared independently of the room's existence.
//
// The log is guarded by the room's own mutex so that traffic in one room
// never serializes with another.
type Room struct {
	Name string

	mu       sync.Mutex
	messages []Message
}

func NewRoom(name string) *Room {
	return &Room{Name: name}
}

// PostMessage appends m to the log unless a message with the same sender and
// timestamp is already present. It reports whether the append happened, so
// the caller can distinguish a fresh write from a duplicate without the log
// ever holding two copies.
func (r *Room) PostMessage(m Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.messages {
		if existing.From == m.From && existing.TimestampUTC == m.TimestampUTC {
			return false
		}
	}
	r.messages = append(r.messages, m)
	return true
}

// Messages returns a copy of the log in insertion order.
func (r *Room) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// ClearLog empties the log. The room itself stays known.
func (r *Room) ClearLog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
