package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/oredrift/server/internal/core/system"
	"github.com/oredrift/server/internal/handler"
	"github.com/oredrift/server/internal/persist"
	"github.com/oredrift/server/internal/world"
)

// PersistenceSystem batch-saves connected player profiles on an interval.
// Snapshots are taken on the loop goroutine; the write happens off-loop so
// no tick ever blocks on the database. Sessions are never persisted.
type PersistenceSystem struct {
	deps    *handler.Deps
	elapsed time.Duration
}

func NewPersistenceSystem(deps *handler.Deps) *PersistenceSystem {
	return &PersistenceSystem{deps: deps}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	store, ok := s.deps.Profiles()
	if !ok {
		return
	}
	s.elapsed += dt
	if s.elapsed < s.deps.Cfg.Simulation.SaveInterval {
		return
	}
	s.elapsed = 0

	var profiles []*persist.Profile
	s.deps.Registry.Each(world.KindPlayer, func(e *world.Entity) {
		if e.Connected {
			profiles = append(profiles, handler.ProfileFromEntity(e))
		}
	})
	if len(profiles) == 0 {
		return
	}

	log := s.deps.Log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.SaveBatch(ctx, profiles); err != nil {
			log.Error("batch profile save failed", zap.Int("profiles", len(profiles)), zap.Error(err))
			return
		}
		log.Debug("profiles saved", zap.Int("profiles", len(profiles)))
	}()
}
