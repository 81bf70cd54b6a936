package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oredrift/server/internal/core/event"
	"github.com/oredrift/server/internal/world"
)

func writeArchetypes(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archetypes.yaml")
	doc := `
archetypes:
  - id: asteroid_rich
    kind: npc
    name: Iridium Asteroid
    quality: 70
  - id: raider_drone
    kind: npc
    name: Raider Drone
    health: 40
    faction: raiders
    speed: 180
  - id: scout_drone
    kind: npc
    name: Scout Drone
    health: 20
    faction: raiders
    speed: 100
    aggro_range: 300
    script: scout_decide
  - id: mining_base
    kind: base
    name: Mining Outpost
    health: 500
    faction: raiders
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestDespawnExpiresTimedEntities(t *testing.T) {
	deps := testDeps(t)
	despawn := NewDespawnSystem(deps)

	wreck := deps.Registry.Spawn(&world.Entity{
		Kind:      world.KindWreckage,
		DespawnAt: deps.Clock.Now().Add(time.Minute),
	})
	keeper := deps.Registry.Spawn(&world.Entity{Kind: world.KindNPC})

	despawn.Update(50 * time.Millisecond)
	if _, ok := deps.Registry.Get(wreck.ID); !ok {
		t.Fatalf("entity expired before its deadline")
	}

	deps.Clock.Advance(time.Minute)
	despawn.Update(50 * time.Millisecond)

	if _, ok := deps.Registry.Get(wreck.ID); ok {
		t.Fatalf("expired entity survived")
	}
	if _, ok := deps.Registry.Get(keeper.ID); !ok {
		t.Fatalf("timerless entity despawned")
	}
}

func TestDespawnSchedulesRespawn(t *testing.T) {
	deps := testDeps(t)
	despawn := NewDespawnSystem(deps)
	combat := NewCombatSystem(deps)

	attacker := deps.Registry.Spawn(&world.Entity{Kind: world.KindPlayer, Connected: true})
	drone := deps.Registry.Spawn(&world.Entity{
		Kind: world.KindNPC, Archetype: "raider_drone",
		Pos: world.Vec2{X: 100, Y: 50}, Health: 1, MaxHealth: 40,
		RespawnDelay: 30 * time.Second,
	})

	var respawned []event.EntityRespawned
	event.MustSubscribe(deps.Bus, func(ev event.EntityRespawned) { respawned = append(respawned, ev) })

	combat.QueueAttack(attacker.ID, drone.ID)
	combat.Update(50 * time.Millisecond)
	if _, ok := deps.Registry.Get(drone.ID); ok {
		t.Fatalf("drone survived the kill")
	}

	deps.Clock.Advance(29 * time.Second)
	despawn.Update(50 * time.Millisecond)
	if len(respawned) != 0 {
		t.Fatalf("respawned before the delay elapsed")
	}

	deps.Clock.Advance(2 * time.Second)
	despawn.Update(50 * time.Millisecond)

	if len(respawned) != 1 {
		t.Fatalf("respawn events = %d, want 1", len(respawned))
	}
	ev := respawned[0]
	if ev.FormerID != drone.ID || ev.Archetype != "raider_drone" {
		t.Fatalf("respawn event: %+v", ev)
	}
	fresh, ok := deps.Registry.Get(ev.ID)
	if !ok || fresh.Health != 40 || fresh.Pos.X != 100 {
		t.Fatalf("respawned drone: %+v", fresh)
	}
	if fresh.RespawnDelay != 30*time.Second {
		t.Fatalf("respawn delay not carried forward: %v", fresh.RespawnDelay)
	}
}

func TestSpawnArchetypeBaseActivation(t *testing.T) {
	deps := testDeps(t)

	var activated []event.BaseActivated
	event.MustSubscribe(deps.Bus, func(ev event.BaseActivated) { activated = append(activated, ev) })

	base := SpawnArchetype(deps, deps.Archetypes.Get("mining_base"), 10, 20, 0)

	if !base.Active || base.Kind != world.KindBase {
		t.Fatalf("base: %+v", base)
	}
	if base.MaxHealth != 500 || base.Health != 500 {
		t.Fatalf("base hull: %v/%v", base.Health, base.MaxHealth)
	}
	if len(activated) != 1 || activated[0].BaseID != base.ID {
		t.Fatalf("activation events: %+v", activated)
	}
}
