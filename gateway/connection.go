package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"roomchat/contract"
	"roomchat/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// State tracks where a connection is in its lifecycle. Transitions are
// Connecting -> Authenticating -> Accepted -> Open -> Closed on the happy
// path, or Rejected -> Closed when the handshake fails. A rejected
// connection never touches the registry.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateAccepted
	StateOpen
	StateRejected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateAccepted:
		return "accepted"
	case StateOpen:
		return "open"
	case StateRejected:
		return "rejected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is one client's live session, bound to exactly one room for its
// whole lifetime. A single read goroutine preserves per-connection frame
// order; outgoing messages go through a buffered channel drained by a single
// write goroutine.
type Connection struct {
	id       uuid.UUID
	identity domain.Identity
	room     string
	conn     *websocket.Conn
	send     chan domain.Message
	done     chan struct{}
	log      *slog.Logger
	registry contract.Registry
	pipeline *Pipeline

	state     atomic.Int32
	closeOnce sync.Once
}

func newConnection(log *slog.Logger, conn *websocket.Conn, identity domain.Identity,
	room string, registry contract.Registry, pipeline *Pipeline, bufferSize int) *Connection {
	c := &Connection{
		id:       uuid.New(),
		identity: identity,
		room:     room,
		conn:     conn,
		send:     make(chan domain.Message, bufferSize),
		done:     make(chan struct{}),
		log:      log,
		registry: registry,
		pipeline: pipeline,
	}
	c.setState(StateAccepted)
	return c
}

func (c *Connection) ID() uuid.UUID { return c.id }

func (c *Connection) State() State { return State(c.state.Load()) }

func (c *Connection) setState(s State) { c.state.Store(int32(s)) }

// Deliver hands a message to this connection's outgoing buffer without ever
// blocking the broadcaster. A full buffer or a closed connection is an error
// for this recipient only; the registry treats it as a harmless skip.
func (c *Connection) Deliver(m domain.Message) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection %s is closed", c.id)
	case c.send <- m:
		return nil
	default:
		return fmt.Errorf("connection %s buffer full, dropping delivery", c.id)
	}
}

// readPump processes inbound frames in arrival order until the transport
// closes from either side, then tears the connection down.
func (c *Connection) readPump() {
	defer c.close()
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.pipeline.Handle(frame)
	}
}

// writePump drains the outgoing buffer onto the transport.
func (c *Connection) writePump() {
	for {
		select {
		case <-c.done:
			return
		case m := <-c.send:
			payload, err := json.Marshal(m)
			if err != nil {
				c.log.Error("Dropping undeliverable message", "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		}
	}
}

// close is immediate and unconditional: it unsubscribes exactly once
// regardless of in-flight appends or broadcasts. Later deliveries targeting
// this connection fail harmlessly through Deliver.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.setState(StateClosed)
		close(c.done)
		c.registry.Unsubscribe(c.room, c.id)
		_ = c.conn.Close()
		c.log.Debug("Connection closed", "room", c.room, "subject", c.identity.Subject)
	})
}
