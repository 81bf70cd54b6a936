package world

import (
	"testing"

	"github.com/oredrift/server/internal/core/event"
	"github.com/oredrift/server/internal/spatial"
)

func newTestRegistry() (*Registry, *event.Bus, *spatial.Grid) {
	bus := event.NewBus(0, nil)
	grid := spatial.NewGrid(200)
	return NewRegistry(grid, bus), bus, grid
}

func TestRegistrySpawnAssignsIDAndIndexes(t *testing.T) {
	reg, bus, grid := newTestRegistry()

	var spawned []event.EntitySpawned
	event.MustSubscribe(bus, func(ev event.EntitySpawned) { spawned = append(spawned, ev) })

	e := reg.Spawn(&Entity{Kind: KindNPC, Pos: Vec2{X: 50, Y: 50}})
	if e.ID != "npc-1" {
		t.Fatalf("id = %q, want npc-1", e.ID)
	}
	if _, ok := grid.CellOf(e.ID); !ok {
		t.Fatalf("spawned entity missing from spatial index")
	}
	if len(spawned) != 1 || spawned[0].ID != "npc-1" {
		t.Fatalf("spawn event: %+v", spawned)
	}
	if reg.Count(KindNPC) != 1 || reg.Len() != 1 {
		t.Fatalf("counts: byKind=%d total=%d", reg.Count(KindNPC), reg.Len())
	}
}

func TestRegistryDestroyIsAtomic(t *testing.T) {
	reg, bus, grid := newTestRegistry()
	e := reg.Spawn(&Entity{Kind: KindPlayer, Pos: Vec2{X: 0, Y: 0}})

	// By the time the destroyed event fires the id must be gone from
	// every index: subscribers may not observe a half-removed entity.
	event.MustSubscribe(bus, func(ev event.EntityDestroyed) {
		if _, ok := reg.Get(ev.ID); ok {
			t.Errorf("entity still in registry during destroy event")
		}
		if _, ok := grid.CellOf(ev.ID); ok {
			t.Errorf("entity still in grid during destroy event")
		}
	})

	if !reg.Destroy(e.ID, "test") {
		t.Fatalf("destroy returned false for live entity")
	}
	if reg.Destroy(e.ID, "test") {
		t.Fatalf("second destroy must be a no-op")
	}
}

func TestRegistryDestroyOrphansOwned(t *testing.T) {
	reg, bus, _ := newTestRegistry()
	owner := reg.Spawn(&Entity{Kind: KindPlayer})
	drone := reg.Spawn(&Entity{Kind: KindNPC, Owner: owner.ID})

	var orphans []event.EntityOrphaned
	event.MustSubscribe(bus, func(ev event.EntityOrphaned) { orphans = append(orphans, ev) })

	reg.Destroy(owner.ID, "test")

	got, _ := reg.Get(drone.ID)
	if got.Owner != "" {
		t.Fatalf("owner not cleared: %q", got.Owner)
	}
	if len(orphans) != 1 || orphans[0].ID != drone.ID || orphans[0].FormerOwner != owner.ID {
		t.Fatalf("orphan events: %+v", orphans)
	}
}

func TestRegistryMoveUpdatesGrid(t *testing.T) {
	reg, _, grid := newTestRegistry()
	e := reg.Spawn(&Entity{Kind: KindPlayer, Pos: Vec2{X: 10, Y: 10}})

	reg.Move(e.ID, 450, -300)

	got, _ := reg.Get(e.ID)
	if got.Pos.X != 450 || got.Pos.Y != -300 {
		t.Fatalf("pos = %+v", got.Pos)
	}
	k, _ := grid.CellOf(e.ID)
	if k.CX != 2 || k.CY != -2 {
		t.Fatalf("cell = %+v, want (2,-2)", k)
	}

	reg.Move("missing", 1, 1) // unknown id is ignored
}

func TestRegistryConvertFaction(t *testing.T) {
	reg, bus, _ := newTestRegistry()
	e := reg.Spawn(&Entity{Kind: KindNPC, Faction: "raiders"})

	var evs []event.FactionConverted
	event.MustSubscribe(bus, func(ev event.FactionConverted) { evs = append(evs, ev) })

	reg.ConvertFaction(e.ID, "independent")
	reg.ConvertFaction(e.ID, "independent") // same faction: no event

	if len(evs) != 1 || evs[0].FromFaction != "raiders" || evs[0].ToFaction != "independent" {
		t.Fatalf("conversion events: %+v", evs)
	}
}

func TestEntityAlive(t *testing.T) {
	if !(&Entity{MaxHealth: 0}).Alive() {
		t.Fatalf("healthless entities are always alive")
	}
	if (&Entity{MaxHealth: 100, Health: 0}).Alive() {
		t.Fatalf("zero health with max health set means dead")
	}
	if !(&Entity{MaxHealth: 100, Health: 1}).Alive() {
		t.Fatalf("positive health means alive")
	}
}
