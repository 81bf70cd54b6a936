package event

// Domain event payloads. Each type's shape is a stable contract across all
// emits of that type. Entities are referenced by id only; events never
// carry ownership of registry state.

// ── Entity lifecycle ───────────────────────────────────────────────

type EntitySpawned struct {
	ID      string
	Kind    string
	Faction string
	X, Y    float64
}

type EntityDied struct {
	ID       string
	Kind     string
	KillerID string
}

type EntityDestroyed struct {
	ID    string
	Kind  string
	Cause string
}

type EntityRespawned struct {
	ID        string
	Kind      string
	X, Y      float64
	FormerID  string
	Archetype string
}

// EntityOrphaned fires when an entity's owner (formation leader, base
// controller) goes away but the entity itself survives.
type EntityOrphaned struct {
	ID          string
	FormerOwner string
}

// ── Combat & loot ──────────────────────────────────────────────────

type CombatResolved struct {
	AttackerID string
	DefenderID string
	Damage     float64
	Killed     bool
}

type LootSpawned struct {
	WreckageID string
	SourceID   string
	X, Y       float64
}

// ── Bases, formations, factions ────────────────────────────────────

type BaseActivated struct {
	BaseID  string
	Faction string
}

type BaseDeactivated struct {
	BaseID  string
	Faction string
	Cause   string
}

type FormationLeaderChanged struct {
	FormationID string
	OldLeaderID string
	NewLeaderID string
}

type FactionConverted struct {
	EntityID    string
	FromFaction string
	ToFaction   string
}

// ── Timed interactions ─────────────────────────────────────────────

type InteractionStarted struct {
	SessionID string
	Kind      string
	ActorID   string
	TargetID  string
}

type InteractionProgress struct {
	SessionID  string
	Kind       string
	ActorID    string
	ProgressMS int64
	DurationMS int64
}

// InteractionCompleted goes to the initiator with the full reward detail.
type InteractionCompleted struct {
	SessionID string
	Kind      string
	ActorID   string
	TargetID  string
	Rewards   map[string]float64
}

// InteractionShare goes to each non-initiating participant. Deliberately a
// distinct type from InteractionCompleted so presentation can differ.
type InteractionShare struct {
	SessionID     string
	Kind          string
	ParticipantID string
	Amount        float64
}

type InteractionCancelled struct {
	SessionID string
	Kind      string
	ActorID   string
	Reason    string
}
