package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/handler"
)

// CleanupSystem sweeps expired cooldown records in bulk. Lookups already
// prune lazily; the sweep bounds memory for targets nobody asks about.
type CleanupSystem struct {
	deps    *handler.Deps
	elapsed time.Duration
}

func NewCleanupSystem(deps *handler.Deps) *CleanupSystem {
	return &CleanupSystem{deps: deps}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.deps.Cfg.Simulation.CooldownSweep {
		return
	}
	s.elapsed = 0
	if n := s.deps.Cooldowns.Sweep(s.deps.Clock.Now()); n > 0 {
		s.deps.Log.Debug("cooldowns swept", zap.Int("expired", n))
	}
}
