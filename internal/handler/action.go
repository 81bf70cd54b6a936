package handler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oredrift/server/internal/interaction"
	"github.com/oredrift/server/internal/net"
	"github.com/oredrift/server/internal/persist"
	"github.com/oredrift/server/internal/sim"
	"github.com/oredrift/server/internal/world"
)

// playerMaxSpeed clamps client-requested velocity, units per second.
const playerMaxSpeed = 300.0

// Dispatch routes one inbox command. Interaction verbs follow the
// "<kind>:<op>" convention; everything else is a fixed verb.
func Dispatch(cmd sim.Command, deps *Deps) {
	switch cmd.Verb {
	case "join":
		handleJoin(cmd, deps)
		return
	case "leave":
		handleLeave(cmd, deps)
		return
	case "move":
		handleMove(cmd, deps)
		return
	case "attack":
		if deps.Combat != nil {
			deps.Combat.QueueAttack(cmd.ActorID, cmd.TargetID)
		}
		return
	case "formation:create":
		fo := deps.Formations.Create(cmd.ActorID)
		reply(cmd, net.Message{Type: "formation:created", Data: net.FormationPayload{
			FormationID: fo.ID, LeaderID: fo.LeaderID,
		}})
		return
	case "formation:join":
		if !deps.Formations.Join(cmd.TargetID, cmd.ActorID) {
			reply(cmd, net.Message{Type: "formation:error", Data: net.ErrorPayload{
				Message: "no such formation",
			}})
		}
		return
	case "formation:leave":
		deps.Formations.Leave(cmd.ActorID)
		return
	case "profile:apply":
		applyProfile(cmd, deps)
		return
	}

	kind, op, ok := strings.Cut(cmd.Verb, ":")
	if !ok || deps.Defs.Get(kind) == nil {
		reply(cmd, net.Message{Type: "error", Data: net.ErrorPayload{
			Message: "unknown request " + cmd.Verb,
		}})
		return
	}
	switch op {
	case "start":
		handleStart(cmd, deps, kind)
	case "cancel":
		handleCancel(cmd, deps, kind)
	case "checkCooldown":
		handleCheckCooldown(cmd, deps, kind)
	default:
		reply(cmd, net.Message{Type: kind + ":error", Data: net.ErrorPayload{
			Message: "unknown op " + op,
		}})
	}
}

func reply(cmd sim.Command, msg net.Message) {
	if cmd.Reply != nil {
		cmd.Reply(msg)
	}
}

// handleStart validates and creates a session. Cooldown and vanished-target
// rejections are deliberately silent per the client contract; real
// validation failures go back as "<kind>:error".
func handleStart(cmd sim.Command, deps *Deps, kind string) {
	s, err := deps.Sessions.Start(deps.Clock.Now(), cmd.ActorID, cmd.TargetID, kind)
	if err != nil {
		if interaction.Silent(err) {
			deps.Log.Debug("start suppressed", zap.String("verb", cmd.Verb), zap.Error(err))
			return
		}
		reply(cmd, net.Message{Type: kind + ":error", Data: net.ErrorPayload{
			Message: err.Error(),
		}})
		return
	}
	reply(cmd, net.Message{Type: kind + ":started", Data: net.StartAckPayload{
		SessionID: s.ID,
		TargetID:  s.TargetID(),
	}})
}

func handleCancel(cmd sim.Command, deps *Deps, kind string) {
	def := deps.Defs.Get(kind)
	s, ok := deps.Sessions.ActiveFor(cmd.ActorID, def.Class)
	if !ok || (cmd.SessionID != "" && cmd.SessionID != s.ID) {
		return
	}
	deps.Sessions.Cancel(s.ID, interaction.ReasonExplicit)
}

func handleCheckCooldown(cmd sim.Command, deps *Deps, kind string) {
	on, remaining, err := deps.Sessions.CooldownStatus(deps.Clock.Now(), kind, cmd.TargetID, cmd.ActorID)
	if err != nil {
		return
	}
	reply(cmd, net.Message{Type: kind + ":cooldownStatus", Data: net.CooldownStatusPayload{
		TargetID:    cmd.TargetID,
		OnCooldown:  on,
		RemainingMS: remaining.Milliseconds(),
	}})
}

// handleJoin brings an actor into the world. The entity spawns immediately
// with defaults; the stored profile loads off-loop and re-enters through
// the inbox as profile:apply on a later tick.
func handleJoin(cmd sim.Command, deps *Deps) {
	if e, ok := deps.Registry.Get(cmd.ActorID); ok {
		e.Connected = true
		reply(cmd, net.Message{Type: "joined", Data: net.JoinedPayload{
			ActorID: e.ID, X: e.Pos.X, Y: e.Pos.Y,
		}})
		return
	}

	e := deps.Registry.Spawn(&world.Entity{
		ID:        cmd.ActorID,
		Kind:      world.KindPlayer,
		Archetype: "pilot",
		Health:    100,
		MaxHealth: 100,
		Connected: true,
		Cargo:     make(map[string]float64, 4),
	})
	reply(cmd, net.Message{Type: "joined", Data: net.JoinedPayload{
		ActorID: e.ID, X: e.Pos.X, Y: e.Pos.Y,
	}})

	if store, ok := deps.Profiles(); ok {
		go loadProfile(store, cmd.ActorID, deps)
	}
}

func loadProfile(store ProfileStore, actorID string, deps *Deps) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, err := store.Load(ctx, actorID)
	if err != nil {
		deps.Log.Warn("profile load failed", zap.String("actor", actorID), zap.Error(err))
		return
	}
	deps.Inbox.Push(sim.Command{ActorID: actorID, Verb: "profile:apply", Payload: p})
}

func applyProfile(cmd sim.Command, deps *Deps) {
	p, ok := cmd.Payload.(*persist.Profile)
	if !ok {
		return
	}
	e, found := deps.Registry.Get(cmd.ActorID)
	if !found || e.Kind != world.KindPlayer {
		return
	}
	e.Faction = p.Faction
	e.Health = p.Hull
	e.MaxHealth = p.MaxHull
	for unit, amount := range p.Cargo {
		e.Cargo[unit] += amount
	}
	deps.Registry.Move(e.ID, p.PosX, p.PosY)
}

// handleLeave disconnects an actor: sessions cancel, the formation slot
// frees up, and the entity leaves the world after a final profile save.
func handleLeave(cmd sim.Command, deps *Deps) {
	e, ok := deps.Registry.Get(cmd.ActorID)
	if !ok {
		return
	}
	e.Connected = false
	deps.Sessions.CancelActor(cmd.ActorID, interaction.ReasonDisconnect)
	deps.Formations.Leave(cmd.ActorID)

	if store, ok := deps.Profiles(); ok {
		snapshot := ProfileFromEntity(e)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Save(ctx, snapshot); err != nil {
				deps.Log.Warn("profile save failed", zap.String("actor", snapshot.ActorID), zap.Error(err))
			}
		}()
	}
	deps.Registry.Destroy(cmd.ActorID, "disconnect")
}

func handleMove(cmd sim.Command, deps *Deps) {
	e, ok := deps.Registry.Get(cmd.ActorID)
	if !ok || e.Kind != world.KindPlayer {
		return
	}
	vx, vy := cmd.X, cmd.Y
	if speed := vx*vx + vy*vy; speed > playerMaxSpeed*playerMaxSpeed {
		scale := playerMaxSpeed / world.Dist(world.Vec2{}, world.Vec2{X: vx, Y: vy})
		vx *= scale
		vy *= scale
	}
	e.Vel = world.Vec2{X: vx, Y: vy}
}

// ProfileFromEntity snapshots the persistable slice of a player entity.
func ProfileFromEntity(e *world.Entity) *persist.Profile {
	cargo := make(map[string]float64, len(e.Cargo))
	for k, v := range e.Cargo {
		cargo[k] = v
	}
	return &persist.Profile{
		ActorID: e.ID,
		Faction: e.Faction,
		Credits: cargo["credits"],
		Hull:    e.Health,
		MaxHull: e.MaxHealth,
		PosX:    e.Pos.X,
		PosY:    e.Pos.Y,
		Cargo:   cargo,
	}
}
