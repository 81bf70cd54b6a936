package world

import (
	"fmt"

	"github.com/oredrift/server/internal/core/event"
)

// Formation is a group of pilots flying together. Members in range of a
// completing interaction earn proportional reward shares; formation kills
// split credit the same way.
type Formation struct {
	ID       string
	LeaderID string
	Members  []string // includes the leader, in join order
}

// Formations tracks group membership. Game loop goroutine only.
type Formations struct {
	byID     map[string]*Formation
	byMember map[string]string // actor id → formation id
	bus      *event.Bus
	nextID   uint64
}

func NewFormations(bus *event.Bus) *Formations {
	return &Formations{
		byID:     make(map[string]*Formation, 32),
		byMember: make(map[string]string, 128),
		bus:      bus,
	}
}

// Create starts a new formation with the given leader. An actor already in
// a formation leaves it first.
func (f *Formations) Create(leaderID string) *Formation {
	f.Leave(leaderID)
	f.nextID++
	fo := &Formation{
		ID:       fmt.Sprintf("formation-%d", f.nextID),
		LeaderID: leaderID,
		Members:  []string{leaderID},
	}
	f.byID[fo.ID] = fo
	f.byMember[leaderID] = fo.ID
	return fo
}

// Join adds an actor to an existing formation.
func (f *Formations) Join(formationID, actorID string) bool {
	fo, ok := f.byID[formationID]
	if !ok {
		return false
	}
	f.Leave(actorID)
	fo.Members = append(fo.Members, actorID)
	f.byMember[actorID] = formationID
	return true
}

// Leave removes an actor from their formation. If the leader leaves,
// leadership passes to the earliest remaining member and an event announces
// the change. An emptied formation is deleted.
func (f *Formations) Leave(actorID string) {
	fid, ok := f.byMember[actorID]
	if !ok {
		return
	}
	delete(f.byMember, actorID)
	fo := f.byID[fid]
	for i, m := range fo.Members {
		if m == actorID {
			fo.Members = append(fo.Members[:i], fo.Members[i+1:]...)
			break
		}
	}
	if len(fo.Members) == 0 {
		delete(f.byID, fid)
		return
	}
	if fo.LeaderID == actorID {
		old := fo.LeaderID
		fo.LeaderID = fo.Members[0]
		event.Emit(f.bus, event.FormationLeaderChanged{
			FormationID: fid,
			OldLeaderID: old,
			NewLeaderID: fo.LeaderID,
		})
	}
}

// MatesOf returns the other members of an actor's formation, or nil when
// the actor flies solo.
func (f *Formations) MatesOf(actorID string) []string {
	fid, ok := f.byMember[actorID]
	if !ok {
		return nil
	}
	fo := f.byID[fid]
	mates := make([]string, 0, len(fo.Members)-1)
	for _, m := range fo.Members {
		if m != actorID {
			mates = append(mates, m)
		}
	}
	return mates
}

func (f *Formations) Get(id string) (*Formation, bool) {
	fo, ok := f.byID[id]
	return fo, ok
}

func (f *Formations) FormationOf(actorID string) (string, bool) {
	fid, ok := f.byMember[actorID]
	return fid, ok
}
