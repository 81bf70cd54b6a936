package system

import (
	"time"

	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/handler"
)

// InteractionSystem advances every active session once per tick:
// revalidation, progress, contribution credit, completion.
type InteractionSystem struct {
	deps *handler.Deps
}

func NewInteractionSystem(deps *handler.Deps) *InteractionSystem {
	return &InteractionSystem{deps: deps}
}

func (s *InteractionSystem) Phase() coresys.Phase { return coresys.PhaseInteract }

func (s *InteractionSystem) Update(dt time.Duration) {
	s.deps.Sessions.Advance(s.deps.Clock.Now(), dt)
}
