//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"roomchat/domain"

	"github.com/google/uuid"
)

// TokenVerifier turns a bearer credential into a verified identity.
// Verification may block on a network round trip to the remote key set.
type TokenVerifier interface {
	Verify(credential string) (domain.Identity, error)
}

// Directory is the source of truth for which rooms exist.
type Directory interface {
	Create(name string)
	Exists(name string) bool
	List() []string
	Log(name string) []domain.Message
}

// Store persists room messages and serves paginated history.
type Store interface {
	Append(m domain.Message) error
	Query(room string, offset, limit int) []domain.Message
}

// MessageSink is one live recipient. Deliver must never block the broadcaster:
// a slow or closed recipient returns an error and the message is skipped for
// that recipient only.
type MessageSink interface {
	Deliver(m domain.Message) error
}

// Registry maps each room to its currently subscribed connections.
type Registry interface {
	Subscribe(room string, id uuid.UUID, sink MessageSink)
	Unsubscribe(room string, id uuid.UUID)
	Broadcast(room string, m domain.Message)
}
