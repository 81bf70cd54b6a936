package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/oredrift/server/internal/core/event"
	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/handler"
	"github.com/oredrift/server/internal/world"
)

type respawnEntry struct {
	archetype string
	formerID  string
	pos       world.Vec2
	delay     time.Duration
	at        time.Time
}

// DespawnSystem runs the world's timers: expired wreckage despawns and
// killed NPCs with a respawn delay come back at their spawn point. It
// learns about deaths through the bus, not a direct combat call.
type DespawnSystem struct {
	deps    *handler.Deps
	pending []respawnEntry
}

func NewDespawnSystem(deps *handler.Deps) *DespawnSystem {
	s := &DespawnSystem{deps: deps}
	event.MustSubscribe(deps.Bus, func(ev event.EntityDied) {
		s.onDeath(ev)
	})
	return s
}

func (s *DespawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DespawnSystem) onDeath(ev event.EntityDied) {
	// The registry still holds the entity while the death event runs.
	e, ok := s.deps.Registry.Get(ev.ID)
	if !ok || e.RespawnDelay <= 0 {
		return
	}
	s.pending = append(s.pending, respawnEntry{
		archetype: e.Archetype,
		formerID:  e.ID,
		pos:       e.Pos,
		delay:     e.RespawnDelay,
		at:        s.deps.Clock.Now().Add(e.RespawnDelay),
	})
}

func (s *DespawnSystem) Update(_ time.Duration) {
	now := s.deps.Clock.Now()

	var expired []string
	s.deps.Registry.EachAll(func(e *world.Entity) {
		if !e.DespawnAt.IsZero() && !e.DespawnAt.After(now) {
			expired = append(expired, e.ID)
		}
	})
	for _, id := range expired {
		s.deps.Registry.Destroy(id, "expired")
	}

	remaining := s.pending[:0]
	for _, entry := range s.pending {
		if entry.at.After(now) {
			remaining = append(remaining, entry)
			continue
		}
		arch := s.deps.Archetypes.Get(entry.archetype)
		if arch == nil {
			s.deps.Log.Warn("respawn for unknown archetype", zap.String("archetype", entry.archetype))
			continue
		}
		e := SpawnArchetype(s.deps, arch, entry.pos.X, entry.pos.Y, entry.delay)
		event.Emit(s.deps.Bus, event.EntityRespawned{
			ID:        e.ID,
			Kind:      string(e.Kind),
			X:         e.Pos.X,
			Y:         e.Pos.Y,
			FormerID:  entry.formerID,
			Archetype: entry.archetype,
		})
	}
	s.pending = remaining
}
