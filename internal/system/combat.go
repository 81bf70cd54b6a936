package system

import (
	"time"

	"github.com/oredrift/server/internal/core/capability"
	"github.com/oredrift/server/internal/core/event"
	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/handler"
	"github.com/oredrift/server/internal/world"
)

// weaponRange bounds every attack; per-weapon ranges belong to the balance
// tables outside the core.
const weaponRange = 250.0

// wreckageTTL is how long combat wreckage lingers before despawning.
const wreckageTTL = 60 * time.Second

// DamageResolver is the external combat collaborator: given attacker and
// defender it computes the damage of one hit.
type DamageResolver func(attacker, defender *world.Entity) float64

type attackRequest struct {
	attackerID string
	targetID   string
}

// CombatSystem resolves queued attack requests. Handlers enqueue during the
// input phase; resolution happens here so every hit sees post-movement
// positions. Implements handler.CombatQueue.
type CombatSystem struct {
	deps     *handler.Deps
	requests []attackRequest
}

func NewCombatSystem(deps *handler.Deps) *CombatSystem {
	return &CombatSystem{deps: deps}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

// QueueAttack implements handler.CombatQueue.
func (s *CombatSystem) QueueAttack(attackerID, targetID string) {
	s.requests = append(s.requests, attackRequest{attackerID: attackerID, targetID: targetID})
}

func (s *CombatSystem) Update(_ time.Duration) {
	for _, req := range s.requests {
		s.resolve(req)
	}
	s.requests = s.requests[:0]
}

func (s *CombatSystem) resolve(req attackRequest) {
	attacker, ok := s.deps.Registry.Get(req.attackerID)
	if !ok || !attacker.Alive() {
		return
	}
	target, ok := s.deps.Registry.Get(req.targetID)
	if !ok || !target.Alive() || target.MaxHealth == 0 {
		return
	}
	if world.Dist(attacker.Pos, target.Pos) > weaponRange {
		return
	}

	damage := s.damage(attacker, target)
	target.Health -= damage
	killed := target.Health <= 0

	event.Emit(s.deps.Bus, event.CombatResolved{
		AttackerID: attacker.ID,
		DefenderID: target.ID,
		Damage:     damage,
		Killed:     killed,
	})

	if killed {
		s.handleKill(attacker, target)
	}
}

// damage defers to the registered combat resolver capability, falling back
// to a flat baseline when none is wired.
func (s *CombatSystem) damage(attacker, target *world.Entity) float64 {
	if p, ok := s.deps.Caps.Lookup(capability.CombatResolve); ok {
		if resolver, ok := p.(DamageResolver); ok {
			return resolver(attacker, target)
		}
	}
	return 10
}

// handleKill emits the death, drops wreckage at the target's position, and
// removes the target. The respawn scheduler listens for the death event.
func (s *CombatSystem) handleKill(attacker, target *world.Entity) {
	event.Emit(s.deps.Bus, event.EntityDied{
		ID:       target.ID,
		Kind:     string(target.Kind),
		KillerID: attacker.ID,
	})

	if target.Kind == world.KindNPC || target.Kind == world.KindPlayer {
		quality := target.Quality
		if quality < 10 {
			quality = 10
		}
		wreck := s.deps.Registry.Spawn(&world.Entity{
			Kind:      world.KindWreckage,
			Archetype: "wreckage",
			Pos:       target.Pos,
			Faction:   target.Faction,
			Quality:   quality,
			DespawnAt: s.deps.Clock.Now().Add(wreckageTTL),
		})
		event.Emit(s.deps.Bus, event.LootSpawned{
			WreckageID: wreck.ID,
			SourceID:   target.ID,
			X:          wreck.Pos.X,
			Y:          wreck.Pos.Y,
		})
	}

	s.deps.Registry.Destroy(target.ID, "killed")
}
