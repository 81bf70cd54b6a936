package handler

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/oredrift/server/internal/config"
	"github.com/oredrift/server/internal/core/capability"
	"github.com/oredrift/server/internal/core/event"
	"github.com/oredrift/server/internal/data"
	"github.com/oredrift/server/internal/interaction"
	"github.com/oredrift/server/internal/net"
	"github.com/oredrift/server/internal/sim"
	"github.com/oredrift/server/internal/spatial"
	"github.com/oredrift/server/internal/world"
)

func testDeps(t *testing.T) *Deps {
	t.Helper()
	defs, err := data.NewInteractionTable([]data.InteractionDef{
		{Kind: "mine", DurationMS: 3000, Range: 150, CooldownMS: 5000,
			RewardUnit: "ore", RewardMax: 100, TargetKinds: []string{"npc"}},
	})
	if err != nil {
		t.Fatalf("defs: %v", err)
	}
	log := zap.NewNop()
	bus := event.NewBus(0, log)
	grid := spatial.NewGrid(200)
	reg := world.NewRegistry(grid, bus)
	cds := world.NewCooldowns()
	forms := world.NewFormations(bus)
	return &Deps{
		Cfg:        config.Default(),
		Log:        log,
		Clock:      sim.NewClock(time.UnixMilli(0)),
		Inbox:      sim.NewInbox(),
		Registry:   reg,
		Grid:       grid,
		Bus:        bus,
		Sessions:   interaction.NewManager(defs, reg, grid, forms, cds, bus, log),
		Formations: forms,
		Cooldowns:  cds,
		Defs:       defs,
		Caps:       capability.NewRegistry(),
	}
}

type replySink struct {
	msgs []net.Message
}

func (r *replySink) fn(msg any) {
	if m, ok := msg.(net.Message); ok {
		r.msgs = append(r.msgs, m)
	}
}

func (r *replySink) last(t *testing.T) net.Message {
	t.Helper()
	if len(r.msgs) == 0 {
		t.Fatalf("no reply received")
	}
	return r.msgs[len(r.msgs)-1]
}

func TestDispatchJoinSpawnsPlayer(t *testing.T) {
	deps := testDeps(t)
	sink := &replySink{}

	Dispatch(sim.Command{ActorID: "player-7", Verb: "join", Reply: sink.fn}, deps)

	e, ok := deps.Registry.Get("player-7")
	if !ok || e.Kind != world.KindPlayer || !e.Connected {
		t.Fatalf("player not spawned: %+v", e)
	}
	if sink.last(t).Type != "joined" {
		t.Fatalf("reply = %+v", sink.last(t))
	}
}

func TestDispatchRejoinKeepsEntity(t *testing.T) {
	deps := testDeps(t)
	Dispatch(sim.Command{ActorID: "p", Verb: "join"}, deps)
	e, _ := deps.Registry.Get("p")
	e.Connected = false
	e.Cargo["ore"] = 12

	Dispatch(sim.Command{ActorID: "p", Verb: "join"}, deps)

	again, _ := deps.Registry.Get("p")
	if !again.Connected || again.Cargo["ore"] != 12 {
		t.Fatalf("rejoin rebuilt the entity: %+v", again)
	}
}

func TestDispatchMoveClampsSpeed(t *testing.T) {
	deps := testDeps(t)
	Dispatch(sim.Command{ActorID: "p", Verb: "join"}, deps)

	Dispatch(sim.Command{ActorID: "p", Verb: "move", X: 10000, Y: 0}, deps)

	e, _ := deps.Registry.Get("p")
	if e.Vel.X != playerMaxSpeed || e.Vel.Y != 0 {
		t.Fatalf("velocity not clamped: %+v", e.Vel)
	}

	Dispatch(sim.Command{ActorID: "p", Verb: "move", X: 100, Y: -50}, deps)
	e, _ = deps.Registry.Get("p")
	if e.Vel.X != 100 || e.Vel.Y != -50 {
		t.Fatalf("velocity under the cap was altered: %+v", e.Vel)
	}
}

func TestDispatchInteractionRoundTrip(t *testing.T) {
	deps := testDeps(t)
	sink := &replySink{}
	Dispatch(sim.Command{ActorID: "p", Verb: "join"}, deps)
	a := deps.Registry.Spawn(&world.Entity{
		Kind: world.KindNPC, Pos: world.Vec2{X: 50, Y: 0}, Quality: 40,
	})

	Dispatch(sim.Command{ActorID: "p", Verb: "mine:start", TargetID: a.ID, Reply: sink.fn}, deps)
	ack := sink.last(t)
	if ack.Type != "mine:started" {
		t.Fatalf("ack = %+v", ack)
	}
	if deps.Sessions.ActiveCount() != 1 {
		t.Fatalf("no session created")
	}

	Dispatch(sim.Command{ActorID: "p", Verb: "mine:cancel"}, deps)
	if deps.Sessions.ActiveCount() != 0 {
		t.Fatalf("cancel did not end the session")
	}
}

func TestDispatchStartErrorsReportedNotSilent(t *testing.T) {
	deps := testDeps(t)
	sink := &replySink{}
	Dispatch(sim.Command{ActorID: "p", Verb: "join"}, deps)

	// Validation failure: explicit error back to the requester.
	Dispatch(sim.Command{ActorID: "p", Verb: "mine:start", TargetID: "npc-404", Reply: sink.fn}, deps)
	if sink.last(t).Type != "mine:error" {
		t.Fatalf("validation failure reply = %+v", sink.last(t))
	}

	// Cooldown rejection: silence on the wire.
	a := deps.Registry.Spawn(&world.Entity{
		Kind: world.KindNPC, Pos: world.Vec2{X: 50, Y: 0}, Quality: 40,
	})
	deps.Cooldowns.Set("mine", a.ID, "p", world.ScopeActor,
		deps.Clock.Now().Add(time.Minute))

	before := len(sink.msgs)
	Dispatch(sim.Command{ActorID: "p", Verb: "mine:start", TargetID: a.ID, Reply: sink.fn}, deps)
	if len(sink.msgs) != before {
		t.Fatalf("cooldown rejection must not produce a reply, got %+v", sink.msgs[len(sink.msgs)-1])
	}
}

func TestDispatchCheckCooldown(t *testing.T) {
	deps := testDeps(t)
	sink := &replySink{}
	Dispatch(sim.Command{ActorID: "p", Verb: "join"}, deps)
	deps.Cooldowns.Set("mine", "npc-9", "p", world.ScopeActor,
		deps.Clock.Now().Add(3*time.Second))

	Dispatch(sim.Command{ActorID: "p", Verb: "mine:checkCooldown", TargetID: "npc-9", Reply: sink.fn}, deps)

	msg := sink.last(t)
	if msg.Type != "mine:cooldownStatus" {
		t.Fatalf("reply type = %q", msg.Type)
	}
	status, ok := msg.Data.(net.CooldownStatusPayload)
	if !ok || !status.OnCooldown || status.RemainingMS != 3000 {
		t.Fatalf("status = %+v", msg.Data)
	}
}

func TestDispatchUnknownVerb(t *testing.T) {
	deps := testDeps(t)
	sink := &replySink{}
	Dispatch(sim.Command{ActorID: "p", Verb: "teleport:start", Reply: sink.fn}, deps)
	if sink.last(t).Type != "error" {
		t.Fatalf("reply = %+v", sink.last(t))
	}
}

func TestDispatchLeaveTearsDown(t *testing.T) {
	deps := testDeps(t)
	Dispatch(sim.Command{ActorID: "p", Verb: "join"}, deps)
	a := deps.Registry.Spawn(&world.Entity{
		Kind: world.KindNPC, Pos: world.Vec2{X: 50, Y: 0}, Quality: 40,
	})
	Dispatch(sim.Command{ActorID: "p", Verb: "mine:start", TargetID: a.ID}, deps)
	fo := deps.Formations.Create("p")

	Dispatch(sim.Command{ActorID: "p", Verb: "leave"}, deps)

	if _, ok := deps.Registry.Get("p"); ok {
		t.Fatalf("entity survived leave")
	}
	if deps.Sessions.ActiveCount() != 0 {
		t.Fatalf("session survived leave")
	}
	if _, ok := deps.Formations.Get(fo.ID); ok {
		t.Fatalf("solo formation survived leave")
	}
}

func TestDispatchFormationVerbs(t *testing.T) {
	deps := testDeps(t)
	sink := &replySink{}
	Dispatch(sim.Command{ActorID: "p1", Verb: "join"}, deps)
	Dispatch(sim.Command{ActorID: "p2", Verb: "join"}, deps)

	Dispatch(sim.Command{ActorID: "p1", Verb: "formation:create", Reply: sink.fn}, deps)
	created := sink.last(t)
	payload, ok := created.Data.(net.FormationPayload)
	if created.Type != "formation:created" || !ok {
		t.Fatalf("create reply = %+v", created)
	}

	Dispatch(sim.Command{ActorID: "p2", Verb: "formation:join", TargetID: payload.FormationID}, deps)
	if mates := deps.Formations.MatesOf("p1"); len(mates) != 1 || mates[0] != "p2" {
		t.Fatalf("mates = %v", mates)
	}

	Dispatch(sim.Command{ActorID: "p2", Verb: "formation:join", TargetID: "formation-404", Reply: sink.fn}, deps)
	if sink.last(t).Type != "formation:error" {
		t.Fatalf("bad join reply = %+v", sink.last(t))
	}
}

func TestProfileApply(t *testing.T) {
	deps := testDeps(t)
	Dispatch(sim.Command{ActorID: "p", Verb: "join"}, deps)

	e, _ := deps.Registry.Get("p")
	profile := ProfileFromEntity(e)
	profile.Faction = "independent"
	profile.Hull = 55
	profile.PosX, profile.PosY = 120, -80
	profile.Cargo = map[string]float64{"ore": 7}

	Dispatch(sim.Command{ActorID: "p", Verb: "profile:apply", Payload: profile}, deps)

	if e.Faction != "independent" || e.Health != 55 {
		t.Fatalf("profile not applied: %+v", e)
	}
	if e.Pos.X != 120 || e.Pos.Y != -80 {
		t.Fatalf("position not restored: %+v", e.Pos)
	}
	if e.Cargo["ore"] != 7 {
		t.Fatalf("cargo not restored: %v", e.Cargo)
	}
}
