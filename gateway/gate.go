// Package gateway accepts realtime connections and runs their message
// pipeline. Authentication happens strictly before the bidirectional channel
// exists, so an unauthenticated party can never observe room traffic or
// occupy a registry slot.
package gateway

import (
	"log/slog"
	"net/http"

	"roomchat/contract"

	"github.com/gorilla/websocket"
)

// Gate decides, at connection-establishment time, whether an incoming
// realtime connection is accepted or rejected. The credential and the target
// room travel as the query parameters "auth" and "room"; rejection is a bare
// 401 before any upgrade, with no detail about which check failed.
type Gate struct {
	log        *slog.Logger
	verifier   contract.TokenVerifier
	directory  contract.Directory
	registry   contract.Registry
	pipeline   *Pipeline
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewGate(log *slog.Logger, verifier contract.TokenVerifier, directory contract.Directory,
	registry contract.Registry, pipeline *Pipeline, bufferSize int) *Gate {
	return &Gate{
		log:        log,
		verifier:   verifier,
		directory:  directory,
		registry:   registry,
		pipeline:   pipeline,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeHTTP drives the handshake state machine:
// Connecting -> Authenticating -> Accepted -> Open, or Rejected.
func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Connecting: extract credential and target room from the handshake.
	credential := r.URL.Query().Get("auth")
	room := r.URL.Query().Get("room")
	if credential == "" {
		g.reject(w, "missing credential")
		return
	}

	// Authenticating: any AuthError leads to Rejected.
	identity, err := g.verifier.Verify(credential)
	if err != nil {
		g.reject(w, err.Error())
		return
	}

	// The room must exist before the upgrade completes.
	if room == "" || !g.directory.Exists(room) {
		g.reject(w, "missing or unknown room")
		return
	}

	// Accepted: complete the transport upgrade, then subscribe.
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Upgrade failed after acceptance", "error", err)
		return
	}
	c := newConnection(g.log, conn, identity, room, g.registry, g.pipeline, g.bufferSize)
	g.registry.Subscribe(room, c.id, c)
	c.setState(StateOpen)
	g.log.Info("Connection open", "room", room, "subject", identity.Subject)

	go c.writePump()
	go c.readPump()
}

// reject terminates the handshake with a binary unauthorized signal.
// The detailed reason stays in the server log.
func (g *Gate) reject(w http.ResponseWriter, reason string) {
	g.log.Debug("Handshake rejected", "reason", reason)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
