package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/oredrift/server/internal/config"
	"github.com/oredrift/server/internal/core/capability"
	"github.com/oredrift/server/internal/core/event"
	"github.com/oredrift/server/internal/data"
	"github.com/oredrift/server/internal/handler"
	"github.com/oredrift/server/internal/interaction"
	"github.com/oredrift/server/internal/sim"
	"github.com/oredrift/server/internal/spatial"
	"github.com/oredrift/server/internal/world"
)

func testDeps(t *testing.T) *handler.Deps {
	t.Helper()
	defs, err := data.NewInteractionTable(nil)
	if err != nil {
		t.Fatalf("defs: %v", err)
	}
	archetypes, err := data.LoadArchetypeTable(writeArchetypes(t))
	if err != nil {
		t.Fatalf("archetypes: %v", err)
	}
	log := zap.NewNop()
	bus := event.NewBus(0, log)
	grid := spatial.NewGrid(200)
	reg := world.NewRegistry(grid, bus)
	cds := world.NewCooldowns()
	forms := world.NewFormations(bus)
	return &handler.Deps{
		Cfg:        config.Default(),
		Log:        log,
		Clock:      sim.NewClock(time.UnixMilli(0)),
		Inbox:      sim.NewInbox(),
		Registry:   reg,
		Grid:       grid,
		Bus:        bus,
		Sessions:   interaction.NewManager(defs, reg, grid, forms, cds, bus, log),
		Formations: forms,
		Cooldowns:  cds,
		Archetypes: archetypes,
		Defs:       defs,
		Caps:       capability.NewRegistry(),
	}
}

func TestCombatResolvesQueuedAttack(t *testing.T) {
	deps := testDeps(t)
	deps.Caps.Register(capability.CombatResolve,
		DamageResolver(func(_, _ *world.Entity) float64 { return 25 }))
	combat := NewCombatSystem(deps)

	attacker := deps.Registry.Spawn(&world.Entity{
		Kind: world.KindPlayer, Pos: world.Vec2{X: 0, Y: 0}, Connected: true,
	})
	target := deps.Registry.Spawn(&world.Entity{
		Kind: world.KindNPC, Pos: world.Vec2{X: 100, Y: 0}, Health: 60, MaxHealth: 60,
	})

	var resolved []event.CombatResolved
	event.MustSubscribe(deps.Bus, func(ev event.CombatResolved) { resolved = append(resolved, ev) })

	combat.QueueAttack(attacker.ID, target.ID)
	combat.Update(50 * time.Millisecond)

	if target.Health != 35 {
		t.Fatalf("health = %v, want resolver's 25 applied", target.Health)
	}
	if len(resolved) != 1 || resolved[0].Killed {
		t.Fatalf("resolved events: %+v", resolved)
	}

	// Queue drains: re-running the system must not re-apply the hit.
	combat.Update(50 * time.Millisecond)
	if target.Health != 35 {
		t.Fatalf("drained attack re-applied")
	}
}

func TestCombatKillSpawnsWreckage(t *testing.T) {
	deps := testDeps(t)
	combat := NewCombatSystem(deps)

	attacker := deps.Registry.Spawn(&world.Entity{Kind: world.KindPlayer, Connected: true})
	target := deps.Registry.Spawn(&world.Entity{
		Kind: world.KindNPC, Pos: world.Vec2{X: 50, Y: 0},
		Health: 5, MaxHealth: 40, Quality: 35, Faction: "raiders",
	})

	var died []event.EntityDied
	var loot []event.LootSpawned
	event.MustSubscribe(deps.Bus, func(ev event.EntityDied) { died = append(died, ev) })
	event.MustSubscribe(deps.Bus, func(ev event.LootSpawned) { loot = append(loot, ev) })

	combat.QueueAttack(attacker.ID, target.ID)
	combat.Update(50 * time.Millisecond)

	if _, ok := deps.Registry.Get(target.ID); ok {
		t.Fatalf("killed target still in world")
	}
	if len(died) != 1 || died[0].KillerID != attacker.ID {
		t.Fatalf("death events: %+v", died)
	}
	if len(loot) != 1 {
		t.Fatalf("loot events: %+v", loot)
	}
	wreck, ok := deps.Registry.Get(loot[0].WreckageID)
	if !ok || wreck.Kind != world.KindWreckage {
		t.Fatalf("wreckage missing: %+v", wreck)
	}
	if wreck.Quality != 35 {
		t.Fatalf("wreckage quality = %d, want the victim's", wreck.Quality)
	}
	if wreck.DespawnAt.IsZero() {
		t.Fatalf("wreckage has no despawn timer")
	}
}

func TestCombatIgnoresInvalidRequests(t *testing.T) {
	deps := testDeps(t)
	combat := NewCombatSystem(deps)

	attacker := deps.Registry.Spawn(&world.Entity{Kind: world.KindPlayer, Connected: true})
	far := deps.Registry.Spawn(&world.Entity{
		Kind: world.KindNPC, Pos: world.Vec2{X: 9000, Y: 0}, Health: 10, MaxHealth: 10,
	})
	indestructible := deps.Registry.Spawn(&world.Entity{
		Kind: world.KindWormhole, Pos: world.Vec2{X: 50, Y: 0},
	})

	combat.QueueAttack(attacker.ID, far.ID)            // out of weapon range
	combat.QueueAttack(attacker.ID, indestructible.ID) // no hull to damage
	combat.QueueAttack(attacker.ID, "npc-404")         // vanished
	combat.Update(50 * time.Millisecond)

	if far.Health != 10 {
		t.Fatalf("out-of-range target damaged")
	}
	if _, ok := deps.Registry.Get(indestructible.ID); !ok {
		t.Fatalf("healthless entity affected by combat")
	}
}
