// Package observability counts what the fail-open pipeline would otherwise
// hide: every silently dropped frame is invisible to the sender, so the
// counters are the only place the policy can be observed.
package observability

import "sync/atomic"

// PipelineStats aggregates message pipeline and fan-out counters.
// All fields are updated atomically and safe for concurrent use.
type PipelineStats struct {
	accepted           uint64
	droppedMalformed   uint64
	droppedInvalid     uint64
	droppedUnknownRoom uint64
	droppedDuplicate   uint64
	droppedStorage     uint64
	fanoutDelivered    uint64
	fanoutFailed       uint64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Accepted           uint64 `json:"accepted"`
	DroppedMalformed   uint64 `json:"dropped_malformed"`
	DroppedInvalid     uint64 `json:"dropped_invalid"`
	DroppedUnknownRoom uint64 `json:"dropped_unknown_room"`
	DroppedDuplicate   uint64 `json:"dropped_duplicate"`
	DroppedStorage     uint64 `json:"dropped_storage"`
	FanoutDelivered    uint64 `json:"fanout_delivered"`
	FanoutFailed       uint64 `json:"fanout_failed"`
}

func NewPipelineStats() *PipelineStats {
	return &PipelineStats{}
}

func (s *PipelineStats) IncrAccepted()           { atomic.AddUint64(&s.accepted, 1) }
func (s *PipelineStats) IncrDroppedMalformed()   { atomic.AddUint64(&s.droppedMalformed, 1) }
func (s *PipelineStats) IncrDroppedInvalid()     { atomic.AddUint64(&s.droppedInvalid, 1) }
func (s *PipelineStats) IncrDroppedUnknownRoom() { atomic.AddUint64(&s.droppedUnknownRoom, 1) }
func (s *PipelineStats) IncrDroppedDuplicate()   { atomic.AddUint64(&s.droppedDuplicate, 1) }
func (s *PipelineStats) IncrDroppedStorage()     { atomic.AddUint64(&s.droppedStorage, 1) }
func (s *PipelineStats) IncrFanoutDelivered()    { atomic.AddUint64(&s.fanoutDelivered, 1) }
func (s *PipelineStats) IncrFanoutFailed()       { atomic.AddUint64(&s.fanoutFailed, 1) }

func (s *PipelineStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Accepted:           atomic.LoadUint64(&s.accepted),
		DroppedMalformed:   atomic.LoadUint64(&s.droppedMalformed),
		DroppedInvalid:     atomic.LoadUint64(&s.droppedInvalid),
		DroppedUnknownRoom: atomic.LoadUint64(&s.droppedUnknownRoom),
		DroppedDuplicate:   atomic.LoadUint64(&s.droppedDuplicate),
		DroppedStorage:     atomic.LoadUint64(&s.droppedStorage),
		FanoutDelivered:    atomic.LoadUint64(&s.fanoutDelivered),
		FanoutFailed:       atomic.LoadUint64(&s.fanoutFailed),
	}
}
