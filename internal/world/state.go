package world

import (
	"fmt"

	"github.com/oredrift/server/internal/core/event"
	"github.com/oredrift/server/internal/spatial"
)

// Registry is the canonical mutable store of entities. It owns entity
// lifecycle: everything else references entities by id and must tolerate a
// registry miss. Single-threaded, last-writer-wins: the game loop goroutine
// is the only mutator.
type Registry struct {
	entities map[string]*Entity
	byKind   map[Kind]map[string]*Entity
	nextID   uint64
	grid     *spatial.Grid
	bus      *event.Bus
}

func NewRegistry(grid *spatial.Grid, bus *event.Bus) *Registry {
	return &Registry{
		entities: make(map[string]*Entity, 1024),
		byKind:   make(map[Kind]map[string]*Entity, 8),
		grid:     grid,
		bus:      bus,
	}
}

// NextID issues a fresh id with the given kind as prefix.
func (r *Registry) NextID(kind Kind) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", kind, r.nextID)
}

// Spawn stores the entity, indexes it spatially, and emits EntitySpawned.
// An empty ID is assigned from the registry counter.
func (r *Registry) Spawn(e *Entity) *Entity {
	if e.ID == "" {
		e.ID = r.NextID(e.Kind)
	}
	r.put(e)
	r.grid.Insert(e.ID, e.Pos.X, e.Pos.Y)
	event.Emit(r.bus, event.EntitySpawned{
		ID:      e.ID,
		Kind:    string(e.Kind),
		Faction: e.Faction,
		X:       e.Pos.X,
		Y:       e.Pos.Y,
	})
	return e
}

func (r *Registry) put(e *Entity) {
	r.entities[e.ID] = e
	kindMap := r.byKind[e.Kind]
	if kindMap == nil {
		kindMap = make(map[string]*Entity, 64)
		r.byKind[e.Kind] = kindMap
	}
	kindMap[e.ID] = e
}

func (r *Registry) Get(id string) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// Each iterates all entities of one kind. Mutating the visited entity is
// fine; spawning or destroying during iteration is not.
func (r *Registry) Each(kind Kind, fn func(*Entity)) {
	for _, e := range r.byKind[kind] {
		fn(e)
	}
}

// EachAll visits every entity regardless of kind.
func (r *Registry) EachAll(fn func(*Entity)) {
	for _, e := range r.entities {
		fn(e)
	}
}

func (r *Registry) Count(kind Kind) int { return len(r.byKind[kind]) }
func (r *Registry) Len() int            { return len(r.entities) }

// Move updates an entity's position and its spatial cell. The grid update
// short-circuits when the entity stays within its cell.
func (r *Registry) Move(id string, x, y float64) {
	e, ok := r.entities[id]
	if !ok {
		return
	}
	e.Pos.X, e.Pos.Y = x, y
	r.grid.Update(id, x, y)
}

// Destroy removes the entity atomically within the current tick step:
// spatial removal, map removal, ownership orphaning, then the lifecycle
// event, in that order, so by the time subscribers run (including session
// cancellation) the id is no longer queryable anywhere.
func (r *Registry) Destroy(id, cause string) bool {
	e, ok := r.entities[id]
	if !ok {
		return false
	}
	r.grid.Remove(id)
	delete(r.entities, id)
	delete(r.byKind[e.Kind], id)

	for _, other := range r.entities {
		if other.Owner == id {
			other.Owner = ""
			event.Emit(r.bus, event.EntityOrphaned{ID: other.ID, FormerOwner: id})
		}
	}

	event.Emit(r.bus, event.EntityDestroyed{
		ID:    id,
		Kind:  string(e.Kind),
		Cause: cause,
	})
	return true
}

// ConvertFaction flips an entity to a new faction and announces it.
func (r *Registry) ConvertFaction(id, faction string) {
	e, ok := r.entities[id]
	if !ok || e.Faction == faction {
		return
	}
	from := e.Faction
	e.Faction = faction
	event.Emit(r.bus, event.FactionConverted{
		EntityID:    id,
		FromFaction: from,
		ToFaction:   faction,
	})
}

// SnapshotPositions produces grid entries for a bulk index rebuild.
func (r *Registry) SnapshotPositions() []spatial.Entry {
	out := make([]spatial.Entry, 0, len(r.entities))
	for id, e := range r.entities {
		out = append(out, spatial.Entry{ID: id, X: e.Pos.X, Y: e.Pos.Y})
	}
	return out
}
