package system

import (
	"time"

	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/handler"
	"github.com/oredrift/server/internal/world"
)

// MovementSystem integrates velocities and refreshes the spatial index for
// every entity that moved. Registry.Move short-circuits in the grid when
// the entity stays inside its cell, which is the common case.
type MovementSystem struct {
	deps *handler.Deps
}

func NewMovementSystem(deps *handler.Deps) *MovementSystem {
	return &MovementSystem{deps: deps}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(dt time.Duration) {
	step := dt.Seconds()
	s.deps.Registry.EachAll(func(e *world.Entity) {
		if e.Vel.X == 0 && e.Vel.Y == 0 {
			return
		}
		s.deps.Registry.Move(e.ID, e.Pos.X+e.Vel.X*step, e.Pos.Y+e.Vel.Y*step)
	})
}
