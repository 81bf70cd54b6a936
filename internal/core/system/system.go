package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain the per-tick inbox
	PhaseUpdate                  // 1: AI, movement, spatial updates
	PhaseInteract                // 2: advance interaction sessions
	PhaseCombat                  // 3: resolve queued hits
	PhasePostUpdate              // 4: despawn, respawn, timers
	PhaseOutput                  // 5: flush event batch to broadcaster
	PhasePersist                 // 6: batch profile saves
	PhaseCleanup                 // 7: cooldown sweep, scratch reset
)

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
