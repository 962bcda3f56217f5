package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"roomchat/domain"
	"roomchat/errors"

	"github.com/dgraph-io/badger/v4"
)

// ConversationStore holds pairwise (not room-scoped) message logs in BadgerDB.
// The key is formatted as "chat:{pair_id}:{timestamp_padded}:{from}" to:
//  1. Group both directions of a conversation under one canonical pair id.
//  2. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order), so a reverse scan yields newest first.
//  3. Enforce the (pair, from, timestamp_utc) uniqueness constraint through
//     the key itself.
type ConversationStore struct {
	db    *badger.DB
	log   *slog.Logger
	limit int
}

func NewConversationStore(db *badger.DB, log *slog.Logger) *ConversationStore {
	return &ConversationStore{db: db, log: log, limit: DefaultLimit}
}

func conversationKey(pairID string, timestampUTC int64, from string) []byte {
	return []byte(fmt.Sprintf("chat:%s:%019d:%s", pairID, timestampUTC, from))
}

// Append persists one message sent from one participant to another. The stored
// record carries the canonical pair id in the room field of the wire schema.
// A second message from the same sender with the same timestamp is rejected
// with errors.ErrConstraintViolation and nothing is written.
func (s *ConversationStore) Append(from, to string, timestampUTC int64, text string) error {
	message := domain.Message{
		Room:         domain.ChatID(from, to),
		From:         from,
		TimestampUTC: timestampUTC,
		Text:         text,
	}
	value, err := json.Marshal(message)
	if err != nil {
		return err
	}

	key := conversationKey(message.Room, timestampUTC, from)
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return errors.ErrConstraintViolation
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, value)
	})
}

// Query retrieves the conversation between two participants, newest first.
// When before is set, only messages with timestamp_utc strictly less than the
// cursor are returned; this replaces offset paging for this variant. At most
// DefaultLimit messages come back per call.
func (s *ConversationStore) Query(a, b string, before *int64) ([]domain.Message, error) {
	prefixStr := fmt.Sprintf("chat:%s:", domain.ChatID(a, b))
	prefix := []byte(prefixStr)

	messages := make([]domain.Message, 0, s.limit)
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch before {
		case nil:
			// Past the largest possible timestamp, then walk backwards.
			seekKey = append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		default:
			// Entries at exactly the cursor timestamp carry a ":from" suffix
			// and therefore sort after this seek key, so a reverse seek lands
			// on the newest entry strictly before the cursor.
			seekKey = append(append([]byte{}, prefix...), []byte(fmt.Sprintf("%019d", *before))...)
		}

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == s.limit {
				s.log.Debug(fmt.Sprintf("Maximum of %d conversation messages reached", s.limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var m domain.Message
				if err := json.Unmarshal(value, &m); err != nil {
					return err
				}
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
