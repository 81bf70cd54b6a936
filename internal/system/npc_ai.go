package system

import (
	"math"
	"time"

	"github.com/oredrift/server/internal/core/capability"
	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/handler"
	"github.com/oredrift/server/internal/scripting"
	"github.com/oredrift/server/internal/world"
)

// AIDecider produces a desired velocity for a scripted NPC. The scripting
// engine provides it under the ai.decide capability.
type AIDecider interface {
	Has(fn string) bool
	Decide(fn string, self scripting.EntityView, nearby []scripting.EntityView) (vx, vy float64, ok bool)
}

// NPCAISystem decides each NPC's desired velocity once per tick. NPCs with
// a Lua decide function use it; everything else gets the builtin seek/idle
// behaviour. Registered before MovementSystem so decisions apply this tick.
type NPCAISystem struct {
	deps *handler.Deps
}

func NewNPCAISystem(deps *handler.Deps) *NPCAISystem {
	return &NPCAISystem{deps: deps}
}

func (s *NPCAISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *NPCAISystem) Update(_ time.Duration) {
	decider := s.decider()
	s.deps.Registry.Each(world.KindNPC, func(e *world.Entity) {
		arch := s.deps.Archetypes.Get(e.Archetype)
		if arch == nil || arch.Speed <= 0 {
			return // static object (asteroid)
		}
		if arch.Script != "" && decider != nil && decider.Has(arch.Script) {
			if vx, vy, ok := s.scripted(decider, e, arch.Script, arch.AggroRange); ok {
				e.Vel = clampVel(vx, vy, arch.Speed)
				return
			}
		}
		e.Vel = clampVel(s.builtin(e, arch.AggroRange, arch.Speed))
	})
}

func (s *NPCAISystem) decider() AIDecider {
	p, ok := s.deps.Caps.Lookup(capability.AIDecide)
	if !ok {
		return nil
	}
	d, ok := p.(AIDecider)
	if !ok {
		return nil
	}
	return d
}

func (s *NPCAISystem) scripted(decider AIDecider, e *world.Entity, fn string, aggro float64) (float64, float64, bool) {
	nearby := s.viewsNear(e, aggro)
	return decider.Decide(fn, scripting.EntityView{
		ID: e.ID, Kind: string(e.Kind), Faction: e.Faction,
		X: e.Pos.X, Y: e.Pos.Y, VX: e.Vel.X, VY: e.Vel.Y, Health: e.Health,
	}, nearby)
}

func (s *NPCAISystem) viewsNear(e *world.Entity, rng float64) []scripting.EntityView {
	var views []scripting.EntityView
	for _, id := range s.deps.Grid.Query(e.Pos.X, e.Pos.Y, rng) {
		if id == e.ID {
			continue
		}
		o, ok := s.deps.Registry.Get(id)
		if !ok || world.Dist(e.Pos, o.Pos) > rng {
			continue
		}
		views = append(views, scripting.EntityView{
			ID: o.ID, Kind: string(o.Kind), Faction: o.Faction,
			X: o.Pos.X, Y: o.Pos.Y, VX: o.Vel.X, VY: o.Vel.Y, Health: o.Health,
		})
	}
	return views
}

// builtin seeks the nearest hostile player in aggro range, else drifts to a
// stop.
func (s *NPCAISystem) builtin(e *world.Entity, aggro, speed float64) (float64, float64, float64) {
	if aggro <= 0 {
		return 0, 0, speed
	}
	var (
		best     *world.Entity
		bestDist = aggro
	)
	for _, id := range s.deps.Grid.Query(e.Pos.X, e.Pos.Y, aggro) {
		o, ok := s.deps.Registry.Get(id)
		if !ok || o.Kind != world.KindPlayer || !o.Connected {
			continue
		}
		if o.Faction != "" && o.Faction == e.Faction {
			continue
		}
		if d := world.Dist(e.Pos, o.Pos); d <= bestDist {
			best, bestDist = o, d
		}
	}
	if best == nil {
		return e.Vel.X * 0.8, e.Vel.Y * 0.8, speed
	}
	dx := best.Pos.X - e.Pos.X
	dy := best.Pos.Y - e.Pos.Y
	if bestDist == 0 {
		return 0, 0, speed
	}
	return dx / bestDist * speed, dy / bestDist * speed, speed
}

func clampVel(vx, vy, max float64) world.Vec2 {
	mag := math.Sqrt(vx*vx + vy*vy)
	if mag > max && mag > 0 {
		vx = vx / mag * max
		vy = vy / mag * max
	}
	return world.Vec2{X: vx, Y: vy}
}
