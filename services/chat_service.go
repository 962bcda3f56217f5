package services

import (
	"roomchat/domain"
	"roomchat/repositories"
)

type IChatService interface {
	History(room string, offset, limit int) []domain.Message
	Rooms() []string
	SendDirect(from, to string, timestampUTC int64, text string) error
	ConversationHistory(me, with string, before *int64) ([]domain.Message, error)
}

// ChatService composes the room directory and the stores for the REST
// boundary. Realtime traffic goes through the gateway pipeline instead.
type ChatService struct {
	directory     *repositories.RoomDirectory
	store         *repositories.MessageStore
	conversations *repositories.ConversationStore
}

func NewChatService(directory *repositories.RoomDirectory, store *repositories.MessageStore,
	conversations *repositories.ConversationStore) *ChatService {
	return &ChatService{directory: directory, store: store, conversations: conversations}
}

func (s *ChatService) History(room string, offset, limit int) []domain.Message {
	return s.store.Query(room, offset, limit)
}

func (s *ChatService) Rooms() []string {
	return s.directory.List()
}

func (s *ChatService) SendDirect(from, to string, timestampUTC int64, text string) error {
	return s.conversations.Append(from, to, timestampUTC, text)
}

func (s *ChatService) ConversationHistory(me, with string, before *int64) ([]domain.Message, error) {
	return s.conversations.Query(me, with, before)
}
