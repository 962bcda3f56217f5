package repositories

import (
	"log/slog"
	"sort"

	"roomchat/domain"
	"roomchat/errors"
)

// DefaultLimit is the page size used when the caller does not specify one.
const DefaultLimit = 20

// MessageStore mediates every write to a room's log, enforcing referential
// integrity and composite-key uniqueness. Reads never fail: history of an
// unknown room is simply empty.
type MessageStore struct {
	directory *RoomDirectory
	log       *slog.Logger
}

func NewMessageStore(directory *RoomDirectory, log *slog.Logger) *MessageStore {
	return &MessageStore{directory: directory, log: log}
}

// Append stores a message in its room's log.
// It returns errors.ErrForeignKey when the room does not exist and
// errors.ErrConstraintViolation when a message with the same
// (from, timestamp_utc) is already in that room. Neither path mutates state.
func (s *MessageStore) Append(m domain.Message) error {
	room, ok := s.directory.find(m.Room)
	if !ok {
		return errors.ErrForeignKey
	}
	if !room.PostMessage(m) {
		return errors.ErrConstraintViolation
	}
	return nil
}

// Query returns a room's messages sorted by timestamp_utc descending, sliced
// as [offset, offset+limit). Messages sharing a timestamp keep their insertion
// order (stable sort). An unknown room or an out-of-range offset yields an
// empty slice; limit falls back to DefaultLimit when not positive.
func (s *MessageStore) Query(room string, offset, limit int) []domain.Message {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	messages := s.directory.Log(room)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].TimestampUTC > messages[j].TimestampUTC
	})

	if offset >= len(messages) {
		return []domain.Message{}
	}
	end := offset + limit
	if end > len(messages) {
		end = len(messages)
	}
	return messages[offset:end]
}
