package world

import (
	"math"
	"time"
)

// Kind discriminates the entity categories the simulation manages.
type Kind string

const (
	KindPlayer   Kind = "player"
	KindNPC      Kind = "npc"
	KindBase     Kind = "base"
	KindWreckage Kind = "wreckage"
	KindDerelict Kind = "derelict"
	KindWormhole Kind = "wormhole"
)

type Vec2 struct {
	X float64
	Y float64
}

// Dist returns the exact Euclidean distance between two points. Used as the
// fine filter after a coarse grid query.
func Dist(a, b Vec2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Entity holds the in-memory state of one world object. Entities are
// exclusively owned by the Registry; other components hold ids only.
// Accessed only from the game loop goroutine, so no locks.
type Entity struct {
	ID        string
	Kind      Kind
	Archetype string
	Name      string
	Pos       Vec2
	Vel       Vec2
	Faction   string
	Health    float64
	MaxHealth float64

	// Quality (0-100) feeds the shared reward curve for minable and
	// salvageable entities.
	Quality int

	// Owner links drones and deployed structures to their controller.
	// Cleared (with an orphaning event) when the owner is destroyed.
	Owner string

	// DespawnAt schedules timed removal (wreckage TTL). Zero = never.
	DespawnAt time.Time

	// Dest is the exit position for wormholes.
	Dest Vec2

	// Active marks whether a base is currently operational.
	Active bool

	// Connected is false for player entities whose client dropped.
	Connected bool

	// Cargo holds granted rewards per unit (ore, scrap, credits).
	Cargo map[string]float64

	// RespawnDelay schedules a replacement after destruction. Zero = none.
	RespawnDelay time.Duration

	Metadata map[string]string
}

// Alive reports whether the entity has hit points remaining. Entities
// without health (wormholes, wreckage) are always alive until destroyed.
func (e *Entity) Alive() bool {
	return e.MaxHealth == 0 || e.Health > 0
}
