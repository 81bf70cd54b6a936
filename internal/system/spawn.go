package system

import (
	"time"

	"github.com/oredrift/server/internal/core/event"
	"github.com/oredrift/server/internal/data"
	"github.com/oredrift/server/internal/handler"
	"github.com/oredrift/server/internal/world"
)

// SpawnArchetype instantiates one entity from a template at (x, y). Bases
// come up active and announce it.
func SpawnArchetype(deps *handler.Deps, arch *data.Archetype, x, y float64, respawnDelay time.Duration) *world.Entity {
	e := &world.Entity{
		Kind:         world.Kind(arch.Kind),
		Archetype:    arch.ID,
		Name:         arch.Name,
		Pos:          world.Vec2{X: x, Y: y},
		Faction:      arch.Faction,
		Health:       arch.Health,
		MaxHealth:    arch.Health,
		Quality:      arch.Quality,
		Dest:         world.Vec2{X: arch.DestX, Y: arch.DestY},
		RespawnDelay: respawnDelay,
	}
	if arch.DespawnMS > 0 {
		e.DespawnAt = deps.Clock.Now().Add(time.Duration(arch.DespawnMS) * time.Millisecond)
	}
	if e.Kind == world.KindBase {
		e.Active = true
	}
	deps.Registry.Spawn(e)
	if e.Kind == world.KindBase {
		event.Emit(deps.Bus, event.BaseActivated{BaseID: e.ID, Faction: e.Faction})
	}
	return e
}
