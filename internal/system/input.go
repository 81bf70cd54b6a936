package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/handler"
)

// InputSystem drains the per-tick inbox and dispatches every buffered
// command in arrival order, so requests observe a consistent snapshot and
// ordering never depends on network jitter. Phase 0 (Input).
type InputSystem struct {
	deps       *handler.Deps
	maxPerTick int
}

func NewInputSystem(deps *handler.Deps) *InputSystem {
	return &InputSystem{
		deps:       deps,
		maxPerTick: deps.Cfg.Simulation.MaxCmdsPerTick,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	cmds := s.deps.Inbox.Drain()
	if len(cmds) > s.maxPerTick {
		// Still processed: dropping requests would violate ordering
		// determinism. The warning flags a flooding client or a too-low cap.
		s.deps.Log.Warn("inbox exceeded per-tick budget",
			zap.Int("commands", len(cmds)),
			zap.Int("budget", s.maxPerTick),
		)
	}
	for _, cmd := range cmds {
		handler.Dispatch(cmd, s.deps)
	}
}
