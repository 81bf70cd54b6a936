package net

import (
	"github.com/oredrift/server/internal/core/event"
)

// FromEnvelope converts an internal event envelope to its wire message.
// Returns ok=false for internal-only events with no client representation.
func FromEnvelope(env event.Envelope) (Message, bool) {
	msg := Message{TS: env.Timestamp}

	switch ev := env.Payload.(type) {
	case event.InteractionStarted:
		msg.Type = ev.Kind + ":started"
		msg.Data = StartAckPayload{SessionID: ev.SessionID, TargetID: ev.TargetID}
	case event.InteractionProgress:
		msg.Type = ev.Kind + ":progress"
		msg.Data = ProgressPayload{
			SessionID: ev.SessionID,
			Progress:  ev.ProgressMS,
			Duration:  ev.DurationMS,
		}
	case event.InteractionCompleted:
		msg.Type = ev.Kind + ":complete"
		msg.Data = CompletePayload{SessionID: ev.SessionID, Rewards: ev.Rewards}
	case event.InteractionShare:
		msg.Type = ev.Kind + ":share"
		msg.Data = SharePayload{
			SessionID:     ev.SessionID,
			ParticipantID: ev.ParticipantID,
			Amount:        ev.Amount,
		}
	case event.InteractionCancelled:
		msg.Type = ev.Kind + ":cancelled"
		msg.Data = CancelledPayload{SessionID: ev.SessionID, Reason: ev.Reason}
	case event.EntitySpawned:
		msg.Type = "entity:spawn"
		msg.Data = EntityPayload{ID: ev.ID, Kind: ev.Kind, Faction: ev.Faction, X: ev.X, Y: ev.Y}
	case event.EntityDied:
		msg.Type = "entity:death"
		msg.Data = EntityPayload{ID: ev.ID, Kind: ev.Kind, Cause: ev.KillerID}
	case event.EntityDestroyed:
		msg.Type = "entity:destroyed"
		msg.Data = EntityPayload{ID: ev.ID, Kind: ev.Kind, Cause: ev.Cause}
	case event.EntityRespawned:
		msg.Type = "entity:respawn"
		msg.Data = EntityPayload{ID: ev.ID, Kind: ev.Kind, X: ev.X, Y: ev.Y}
	case event.EntityOrphaned:
		msg.Type = "entity:orphaned"
		msg.Data = EntityPayload{ID: ev.ID, Cause: ev.FormerOwner}
	case event.CombatResolved:
		msg.Type = "combat:resolved"
		msg.Data = CombatPayload{
			AttackerID: ev.AttackerID,
			DefenderID: ev.DefenderID,
			Damage:     ev.Damage,
			Killed:     ev.Killed,
		}
	case event.LootSpawned:
		msg.Type = "loot:spawn"
		msg.Data = EntityPayload{ID: ev.WreckageID, Cause: ev.SourceID, X: ev.X, Y: ev.Y}
	case event.BaseActivated:
		msg.Type = "base:activated"
		msg.Data = BasePayload{BaseID: ev.BaseID, Faction: ev.Faction}
	case event.BaseDeactivated:
		msg.Type = "base:deactivated"
		msg.Data = BasePayload{BaseID: ev.BaseID, Faction: ev.Faction, Cause: ev.Cause}
	case event.FormationLeaderChanged:
		msg.Type = "formation:leader"
		msg.Data = FormationPayload{FormationID: ev.FormationID, LeaderID: ev.NewLeaderID}
	case event.FactionConverted:
		msg.Type = "faction:converted"
		msg.Data = FactionPayload{EntityID: ev.EntityID, From: ev.FromFaction, To: ev.ToFaction}
	default:
		return Message{}, false
	}
	return msg, true
}
