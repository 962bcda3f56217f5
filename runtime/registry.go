// Package runtime holds the in-memory connection registry: which live
// connections are subscribed to which room. It carries no domain rules.
package runtime

import (
	"log/slog"
	"sync"

	"roomchat/contract"
	"roomchat/domain"
	"roomchat/observability"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type memberSet map[uuid.UUID]contract.MessageSink

// Registry maps room name -> set of subscribed connections. The mutex only
// guards the map structure; fan-out happens outside the lock on a snapshot,
// so a slow recipient never holds up subscriptions or other rooms.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	stats       *observability.PipelineStats
	roomMembers map[string]memberSet
}

func NewRegistry(log *slog.Logger, stats *observability.PipelineStats) *Registry {
	return &Registry{
		log:         log,
		stats:       stats,
		roomMembers: make(map[string]memberSet),
	}
}

// InitRooms seeds an empty member set for every known room at startup.
func (r *Registry) InitRooms(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.roomMembers[name]; !ok {
			r.roomMembers[name] = make(memberSet)
		}
	}
}

// Subscribe adds a connection to a room's member set. A connection subscribes
// exactly once, to exactly one room, for its whole lifetime.
func (r *Registry) Subscribe(room string, id uuid.UUID, sink contract.MessageSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(memberSet)
	}
	r.roomMembers[room][id] = sink
}

// Unsubscribe removes a connection from a room. Removing an absent connection
// is a no-op so duplicate close events are harmless.
func (r *Registry) Unsubscribe(room string, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.roomMembers[room]; ok {
		delete(members, id)
	}
}

// Broadcast delivers a message to every connection subscribed to its room at
// call time. Delivery is attempted on a snapshot of the member set: a failure
// on one member (already-closed transport, full buffer) is logged and counted
// but never aborts delivery to the others and never reaches the caller.
func (r *Registry) Broadcast(room string, m domain.Message) {
	r.mu.RLock()
	snapshot := lo.Values(r.roomMembers[room])
	r.mu.RUnlock()

	for _, sink := range snapshot {
		if err := sink.Deliver(m); err != nil {
			r.log.Debug("Skipping unreachable member", "room", room, "error", err)
			r.stats.IncrFanoutFailed()
			continue
		}
		r.stats.IncrFanoutDelivered()
	}
}

// MemberCount reports how many connections are currently subscribed to a room.
func (r *Registry) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roomMembers[room])
}
