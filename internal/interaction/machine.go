package interaction

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/oredrift/server/internal/core/event"
	"github.com/oredrift/server/internal/data"
	"github.com/oredrift/server/internal/spatial"
	"github.com/oredrift/server/internal/world"
)

// Manager is the interaction state machine engine. It validates start
// requests, advances active sessions each tick, and guarantees exactly one
// terminal event per session. Game loop goroutine only.
type Manager struct {
	defs      *data.InteractionTable
	reg       *world.Registry
	grid      *spatial.Grid
	forms     *world.Formations
	cooldowns *world.Cooldowns
	bus       *event.Bus
	log       *zap.Logger

	sessions     map[string]*Session
	order        []string          // creation order, drives deterministic advance
	byActorClass map[string]string // actor+class → session id
	nextID       uint64
}

func NewManager(
	defs *data.InteractionTable,
	reg *world.Registry,
	grid *spatial.Grid,
	forms *world.Formations,
	cooldowns *world.Cooldowns,
	bus *event.Bus,
	log *zap.Logger,
) *Manager {
	m := &Manager{
		defs:         defs,
		reg:          reg,
		grid:         grid,
		forms:        forms,
		cooldowns:    cooldowns,
		bus:          bus,
		log:          log,
		sessions:     make(map[string]*Session, 64),
		byActorClass: make(map[string]string, 64),
	}
	// Destroying an entity must, within the same tick step, cancel or
	// orphan any session referencing it as target. The registry emits
	// synchronously, so this handler runs inside Registry.Destroy.
	event.MustSubscribe(bus, func(ev event.EntityDestroyed) {
		m.onEntityDestroyed(ev.ID)
	})
	return m
}

func actorClassKey(actorID, class string) string {
	return actorID + "\x00" + class
}

// Start validates a request and, on success, creates an active session.
// Failed validation never creates a durable session: the error goes back to
// the requester and nothing else changes.
func (m *Manager) Start(now time.Time, actorID, targetID, kind string) (*Session, error) {
	def := m.defs.Get(kind)
	if def == nil {
		return nil, validationf(CodeUnknownKind, "no such interaction %q", kind)
	}
	actor, ok := m.reg.Get(actorID)
	if !ok {
		return nil, validationf(CodeNoActor, "actor %s not in world", actorID)
	}
	if _, busy := m.byActorClass[actorClassKey(actorID, def.Class)]; busy {
		return nil, validationf(CodeConflict, "actor %s already has an active %s session", actorID, def.Class)
	}
	target, ok := m.reg.Get(targetID)
	if !ok {
		return nil, validationf(CodeNoTarget, "target %s not in world", targetID)
	}
	if err := m.eligible(def, target); err != nil {
		return nil, err
	}
	if !m.withinRange(actor, target, def.Range) {
		return nil, validationf(CodeOutOfRange, "target %s beyond %.0f units", targetID, def.Range)
	}
	scope := world.CooldownScope(def.CooldownScope)
	if remaining, on := m.cooldowns.Remaining(now, def.Class, targetID, actorID, scope); on {
		return nil, &CooldownError{Remaining: remaining}
	}

	targets := []string{targetID}
	if def.MaxTargets > 1 {
		targets = append(targets, m.extraTargets(def, actor, targetID)...)
	}

	m.nextID++
	s := &Session{
		ID:            fmt.Sprintf("session-%d", m.nextID),
		ActorID:       actorID,
		Kind:          def.Kind,
		Class:         def.Class,
		Targets:       targets,
		State:         Pending,
		StartedAt:     now,
		Duration:      def.Duration(),
		contributions: make(map[string]time.Duration, 4),
	}
	s.State = Active
	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
	m.byActorClass[actorClassKey(actorID, def.Class)] = s.ID

	event.Emit(m.bus, event.InteractionStarted{
		SessionID: s.ID,
		Kind:      s.Kind,
		ActorID:   actorID,
		TargetID:  targetID,
	})
	return s, nil
}

// eligible checks target kind and, for extractive kinds, that the target
// carries any resource quality at all.
func (m *Manager) eligible(def *data.InteractionDef, target *world.Entity) error {
	if !def.TargetsKind(string(target.Kind)) {
		return validationf(CodeBadTarget, "%s cannot target a %s", def.Kind, target.Kind)
	}
	if def.Kind == "mine" && target.Quality <= 0 {
		return validationf(CodeBadTarget, "%s carries nothing to extract", target.ID)
	}
	if !target.Alive() {
		return validationf(CodeBadTarget, "%s is already destroyed", target.ID)
	}
	return nil
}

// extraTargets gathers additional eligible targets in range for a
// multi-target session, nearest first, capped at MaxTargets.
func (m *Manager) extraTargets(def *data.InteractionDef, actor *world.Entity, primary string) []string {
	type cand struct {
		id   string
		dist float64
	}
	var cands []cand
	for _, id := range m.grid.Query(actor.Pos.X, actor.Pos.Y, def.Range) {
		if id == primary || id == actor.ID {
			continue
		}
		e, ok := m.reg.Get(id)
		if !ok || !def.TargetsKind(string(e.Kind)) {
			continue
		}
		d := world.Dist(actor.Pos, e.Pos)
		if d > def.Range {
			continue
		}
		cands = append(cands, cand{id: id, dist: d})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].id < cands[j].id
	})
	max := def.MaxTargets - 1
	if len(cands) > max {
		cands = cands[:max]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.id
	}
	return out
}

// withinRange re-checks proximity through the spatial index plus the exact
// Euclidean filter; both parties may have moved since last tick.
func (m *Manager) withinRange(actor, target *world.Entity, rng float64) bool {
	for _, id := range m.grid.Query(actor.Pos.X, actor.Pos.Y, rng) {
		if id == target.ID {
			return world.Dist(actor.Pos, target.Pos) <= rng
		}
	}
	return false
}

// Advance steps every active session once. now is the tick clock; dt is the
// tick delta used for contribution credit.
func (m *Manager) Advance(now time.Time, dt time.Duration) {
	// Snapshot: completing or cancelling mutates m.order via destroy.
	ids := make([]string, len(m.order))
	copy(ids, m.order)

	for _, id := range ids {
		s, ok := m.sessions[id]
		if !ok || s.State != Active {
			continue
		}
		m.step(s, now, dt)
	}
}

func (m *Manager) step(s *Session, now time.Time, dt time.Duration) {
	def := m.defs.Get(s.Kind)

	actor, ok := m.reg.Get(s.ActorID)
	if !ok || !actor.Connected {
		m.cancel(s, ReasonDisconnect)
		return
	}

	// Re-validate every remaining target. A registry miss, or an extra
	// target that drifted out of range, drops out of a multi-target
	// session; the session survives while any target remains. The primary
	// is exempt from the range drop here because the actor leaving range
	// cancels the whole session below.
	for i := len(s.Targets) - 1; i >= 0; i-- {
		tid := s.Targets[i]
		t, ok := m.reg.Get(tid)
		if ok && (tid == s.TargetID() || world.Dist(actor.Pos, t.Pos) <= def.Range) {
			continue
		}
		if !s.dropTarget(tid) {
			m.cancel(s, ReasonTargetDestroyed)
			return
		}
	}

	primary, _ := m.reg.Get(s.TargetID())
	if !m.withinRange(actor, primary, def.Range) {
		m.cancel(s, ReasonOutOfRange)
		return
	}

	s.Progress = now.Sub(s.StartedAt)
	if s.Progress > s.Duration {
		s.Progress = s.Duration
	}

	s.credit(s.ActorID, dt)
	for _, mate := range m.forms.MatesOf(s.ActorID) {
		me, ok := m.reg.Get(mate)
		if ok && me.Connected && world.Dist(actor.Pos, me.Pos) <= def.Range {
			s.credit(mate, dt)
		}
	}

	event.Emit(m.bus, event.InteractionProgress{
		SessionID:  s.ID,
		Kind:       s.Kind,
		ActorID:    s.ActorID,
		ProgressMS: s.Progress.Milliseconds(),
		DurationMS: s.Duration.Milliseconds(),
	})

	// Clamped equality: progress saturates at duration, so this fires on
	// exactly one tick even if later ticks would also satisfy >=.
	if s.Progress == s.Duration {
		m.complete(s, now, def)
	}
}

// complete is the single point that grants rewards and destroys the
// session, synchronously, in the same tick step. There is no gap between
// deciding completion and grant+destroy, so double completion cannot occur.
func (m *Manager) complete(s *Session, now time.Time, def *data.InteractionDef) {
	actor, _ := m.reg.Get(s.ActorID)

	total := 0.0
	for _, tid := range s.Targets {
		if t, ok := m.reg.Get(tid); ok {
			total += Scale(t.Quality, def.RewardMin, def.RewardMax, def.RewardPower)
		}
	}
	shares := m.shares(s, total)
	targets := append([]string(nil), s.Targets...)
	primary := s.TargetID()

	// Grant here and nowhere else: this is the only transition into
	// Completed, and the session is gone before anything can re-enter.
	// Kinds without a reward unit (wormholeTransit) grant nothing.
	if def.RewardUnit != "" {
		for pid, amount := range shares {
			if p, ok := m.reg.Get(pid); ok {
				if p.Cargo == nil {
					p.Cargo = make(map[string]float64, 4)
				}
				p.Cargo[def.RewardUnit] += amount
			}
		}
	}

	// The session leaves every index before side effects run, so the
	// destroyed-target handler triggered by consumption cannot see it.
	m.destroy(s, Completed)

	if def.CooldownMS > 0 && !def.ConsumeTarget {
		m.cooldowns.Set(def.Class, primary, s.ActorID,
			world.CooldownScope(def.CooldownScope), now.Add(def.Cooldown()))
	}

	switch s.Kind {
	case "wormholeTransit":
		if wh, ok := m.reg.Get(primary); ok && actor != nil {
			m.reg.Move(actor.ID, wh.Dest.X, wh.Dest.Y)
		}
	case "plunderBase":
		if base, ok := m.reg.Get(primary); ok && base.Active {
			base.Active = false
			event.Emit(m.bus, event.BaseDeactivated{
				BaseID:  base.ID,
				Faction: base.Faction,
				Cause:   "plundered",
			})
		}
	}

	if def.ConsumeTarget {
		for _, tid := range targets {
			m.reg.Destroy(tid, "consumed")
		}
	}

	rewards := make(map[string]float64, 1)
	if def.RewardUnit != "" {
		rewards[def.RewardUnit] = shares[s.ActorID]
	}
	event.Emit(m.bus, event.InteractionCompleted{
		SessionID: s.ID,
		Kind:      s.Kind,
		ActorID:   s.ActorID,
		TargetID:  s.TargetID(),
		Rewards:   rewards,
	})
	for _, pid := range s.contribOrder {
		if pid == s.ActorID {
			continue
		}
		event.Emit(m.bus, event.InteractionShare{
			SessionID:     s.ID,
			Kind:          s.Kind,
			ParticipantID: pid,
			Amount:        shares[pid],
		})
	}
}

// shares splits the total reward across contributing participants in
// proportion to their credited in-range time.
func (m *Manager) shares(s *Session, total float64) map[string]float64 {
	var sum time.Duration
	for _, c := range s.contributions {
		sum += c
	}
	out := make(map[string]float64, len(s.contributions))
	if sum == 0 {
		out[s.ActorID] = total
		return out
	}
	for _, pid := range s.contribOrder {
		out[pid] = total * float64(s.contributions[pid]) / float64(sum)
	}
	return out
}

// CooldownStatus answers a checkCooldown request.
func (m *Manager) CooldownStatus(now time.Time, kind, targetID, actorID string) (bool, time.Duration, error) {
	def := m.defs.Get(kind)
	if def == nil {
		return false, 0, validationf(CodeUnknownKind, "no such interaction %q", kind)
	}
	remaining, on := m.cooldowns.Remaining(now, def.Class, targetID, actorID,
		world.CooldownScope(def.CooldownScope))
	return on, remaining, nil
}

// Cancel terminates a session explicitly (client request).
func (m *Manager) Cancel(sessionID, reason string) bool {
	s, ok := m.sessions[sessionID]
	if !ok || s.terminal() {
		return false
	}
	m.cancel(s, reason)
	return true
}

// CancelActor terminates every session the actor initiated. Used on
// disconnect; takes effect immediately within the current tick step.
func (m *Manager) CancelActor(actorID, reason string) {
	for _, id := range append([]string(nil), m.order...) {
		s, ok := m.sessions[id]
		if ok && s.ActorID == actorID && !s.terminal() {
			m.cancel(s, reason)
		}
	}
}

// cancel emits the session's single terminal event and destroys it.
func (m *Manager) cancel(s *Session, reason string) {
	m.destroy(s, Cancelled)
	event.Emit(m.bus, event.InteractionCancelled{
		SessionID: s.ID,
		Kind:      s.Kind,
		ActorID:   s.ActorID,
		Reason:    reason,
	})
}

// destroy removes the session from every index. After this no code path
// can reach the session again: terminal transitions happen exactly once.
func (m *Manager) destroy(s *Session, final State) {
	s.State = final
	delete(m.sessions, s.ID)
	delete(m.byActorClass, actorClassKey(s.ActorID, s.Class))
	for i, id := range m.order {
		if id == s.ID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Get returns a live session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	s, ok := m.sessions[id]
	return s, ok
}

// ActiveCount reports the number of live sessions.
func (m *Manager) ActiveCount() int { return len(m.sessions) }

// ActiveFor returns the actor's live session in a class, if any.
func (m *Manager) ActiveFor(actorID, class string) (*Session, bool) {
	id, ok := m.byActorClass[actorClassKey(actorID, class)]
	if !ok {
		return nil, false
	}
	return m.sessions[id], true
}

// onEntityDestroyed reacts to registry destroys: sessions lose the target
// (orphaned from multi-target sets, cancelled when none remain) and
// sessions initiated by the destroyed actor end as disconnects.
func (m *Manager) onEntityDestroyed(id string) {
	m.cooldowns.DropTarget(id)
	for _, sid := range append([]string(nil), m.order...) {
		s, ok := m.sessions[sid]
		if !ok || s.terminal() {
			continue
		}
		if s.ActorID == id {
			m.cancel(s, ReasonDisconnect)
			continue
		}
		for _, tid := range s.Targets {
			if tid == id {
				if !s.dropTarget(id) {
					m.cancel(s, ReasonTargetDestroyed)
				}
				break
			}
		}
	}
}
