package system

import (
	"testing"
	"time"

	"github.com/oredrift/server/internal/core/event"
	"github.com/oredrift/server/internal/net"
	"github.com/oredrift/server/internal/world"
)

type recordingSink struct {
	batches []net.TickBatch
}

func (r *recordingSink) Broadcast(batch net.TickBatch) {
	r.batches = append(r.batches, batch)
}

func TestBroadcastFlushesOneFramePerTick(t *testing.T) {
	deps := testDeps(t)
	sink := &recordingSink{}
	bc := NewBroadcastSystem(deps, sink)

	deps.Registry.Spawn(&world.Entity{Kind: world.KindNPC, Pos: world.Vec2{X: 1, Y: 2}})
	deps.Registry.Spawn(&world.Entity{Kind: world.KindNPC, Pos: world.Vec2{X: 3, Y: 4}})

	bc.Update(50 * time.Millisecond)

	if len(sink.batches) != 1 {
		t.Fatalf("batches = %d, want one frame for the whole tick", len(sink.batches))
	}
	batch := sink.batches[0]
	if batch.Type != "tick" || len(batch.Events) != 2 {
		t.Fatalf("frame: %+v", batch)
	}
	if batch.TS != batch.Events[len(batch.Events)-1].TS {
		t.Fatalf("frame timestamp %d != last event %d", batch.TS, batch.Events[1].TS)
	}

	// Nothing emitted since the drain: silence, not an empty frame.
	bc.Update(50 * time.Millisecond)
	if len(sink.batches) != 1 {
		t.Fatalf("quiet tick produced a frame")
	}
}

func TestBroadcastSkipsInternalOnlyEvents(t *testing.T) {
	deps := testDeps(t)
	sink := &recordingSink{}
	bc := NewBroadcastSystem(deps, sink)

	type internalOnly struct{ N int }
	event.Emit(deps.Bus, internalOnly{N: 1})

	bc.Update(50 * time.Millisecond)
	if len(sink.batches) != 0 {
		t.Fatalf("internal-only event reached the wire: %+v", sink.batches)
	}
}
