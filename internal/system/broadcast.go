package system

import (
	"time"

	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/handler"
	"github.com/oredrift/server/internal/net"
)

// Broadcaster receives one atomic batch per tick. Implemented by the
// websocket gateway; tests substitute a recorder.
type Broadcaster interface {
	Broadcast(batch net.TickBatch)
}

// BroadcastSystem flushes the tick's accumulated events as a single frame.
// Runs in the output phase, after all simulation phases, so clients only
// ever observe whole-tick snapshots, never a partially applied tick.
type BroadcastSystem struct {
	deps *handler.Deps
	sink Broadcaster
}

func NewBroadcastSystem(deps *handler.Deps, sink Broadcaster) *BroadcastSystem {
	return &BroadcastSystem{deps: deps, sink: sink}
}

func (s *BroadcastSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *BroadcastSystem) Update(_ time.Duration) {
	envelopes := s.deps.Bus.DrainBatch()
	if len(envelopes) == 0 {
		return
	}
	events := make([]net.Message, 0, len(envelopes))
	for _, env := range envelopes {
		if msg, ok := net.FromEnvelope(env); ok {
			events = append(events, msg)
		}
	}
	if len(events) == 0 {
		return
	}
	s.sink.Broadcast(net.TickBatch{
		Type:   "tick",
		TS:     envelopes[len(envelopes)-1].Timestamp,
		Events: events,
	})
}
