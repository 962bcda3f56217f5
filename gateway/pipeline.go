package gateway

import (
	"log/slog"

	"roomchat/contract"
	"roomchat/domain"
	"roomchat/errors"
	"roomchat/observability"
)

// Outcome tags what happened to one inbound frame. Senders never see it;
// it exists so the fail-open policy is a visible branch, not a catch-all.
type Outcome int

const (
	Accepted Outcome = iota
	DroppedMalformed
	DroppedInvalidShape
	DroppedUnknownRoom
	DroppedDuplicate
	DroppedStorage
)

// Pipeline runs every inbound frame through decode, shape validation,
// persistence and fan-out. All per-message failures are absorbed here: one
// malformed or duplicate frame never terminates the connection, and the
// sender gets no feedback either way. Each drop is counted and logged at
// debug so the policy stays observable without changing external behavior.
type Pipeline struct {
	log      *slog.Logger
	store    contract.Store
	registry contract.Registry
	stats    *observability.PipelineStats
}

func NewPipeline(log *slog.Logger, store contract.Store,
	registry contract.Registry, stats *observability.PipelineStats) *Pipeline {
	return &Pipeline{log: log, store: store, registry: registry, stats: stats}
}

// Handle processes one raw frame. On success the message is persisted and
// broadcast, in that order: only appended messages are fanned out, so
// broadcast order within a room follows append order.
func (p *Pipeline) Handle(frame []byte) Outcome {
	m, err := domain.DecodeFrame(frame)
	switch err {
	case nil:
	case errors.ErrMalformedFrame:
		p.stats.IncrDroppedMalformed()
		p.log.Debug("Dropping unparseable frame")
		return DroppedMalformed
	default:
		p.stats.IncrDroppedInvalid()
		p.log.Debug("Dropping frame with invalid shape")
		return DroppedInvalidShape
	}

	switch err := p.store.Append(m); err {
	case nil:
	case errors.ErrForeignKey:
		p.stats.IncrDroppedUnknownRoom()
		p.log.Debug("Dropping message for unknown room", "room", m.Room)
		return DroppedUnknownRoom
	case errors.ErrConstraintViolation:
		p.stats.IncrDroppedDuplicate()
		p.log.Debug("Dropping duplicate message", "room", m.Room, "from", m.From)
		return DroppedDuplicate
	default:
		p.stats.IncrDroppedStorage()
		p.log.Warn("Dropping message after storage failure", "room", m.Room, "error", err)
		return DroppedStorage
	}

	p.registry.Broadcast(m.Room, m)
	p.stats.IncrAccepted()
	return Accepted
}
