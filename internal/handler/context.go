package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/oredrift/server/internal/config"
	"github.com/oredrift/server/internal/core/capability"
	"github.com/oredrift/server/internal/core/event"
	"github.com/oredrift/server/internal/data"
	"github.com/oredrift/server/internal/interaction"
	"github.com/oredrift/server/internal/persist"
	"github.com/oredrift/server/internal/sim"
	"github.com/oredrift/server/internal/spatial"
	"github.com/oredrift/server/internal/world"
)

// CombatQueue is implemented by the combat system so handlers can enqueue
// attack requests without importing it.
type CombatQueue interface {
	QueueAttack(attackerID, targetID string)
}

// ProfileStore loads and saves pilot profiles. Resolved through the
// capability registry; no provider is registered when the server runs
// without a database.
type ProfileStore interface {
	Load(ctx context.Context, actorID string) (*persist.Profile, error)
	Save(ctx context.Context, p *persist.Profile) error
	SaveBatch(ctx context.Context, profiles []*persist.Profile) error
}

// Deps holds shared dependencies injected into all command handlers and
// systems. One simulation context, passed by handle, never a global, so
// tests can run several isolated worlds side by side.
type Deps struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Clock      *sim.Clock
	Inbox      *sim.Inbox
	Registry   *world.Registry
	Grid       *spatial.Grid
	Bus        *event.Bus
	Sessions   *interaction.Manager
	Formations *world.Formations
	Cooldowns  *world.Cooldowns
	Archetypes *data.ArchetypeTable
	Defs       *data.InteractionTable
	Caps       *capability.Registry
	Combat     CombatQueue
}

// Profiles resolves the profile store capability, if one is registered.
func (d *Deps) Profiles() (ProfileStore, bool) {
	p, ok := d.Caps.Lookup(capability.ProfileStore)
	if !ok {
		return nil, false
	}
	store, ok := p.(ProfileStore)
	return store, ok
}
