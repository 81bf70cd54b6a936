package interaction

import "time"

// State is the lifecycle position of a session. Terminal states are
// Cancelled and Completed; a session in a terminal state is destroyed
// immediately after its terminal event and never resurrected.
type State int

const (
	Pending State = iota
	Active
	Cancelled
	Completed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Cancelled:
		return "cancelled"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Cancellation reasons carried by the terminal event.
const (
	ReasonOutOfRange      = "out_of_range"
	ReasonDisconnect      = "disconnect"
	ReasonExplicit        = "cancelled"
	ReasonTargetDestroyed = "target_destroyed"
	ReasonConflict        = "conflict"
)

// Session is one in-flight timed interaction between an actor and one or
// more targets. Multi-target collection runs as a single session so the
// one-active-session-per-(actor, class) invariant holds everywhere.
type Session struct {
	ID        string
	ActorID   string
	Kind      string
	Class     string
	Targets   []string // primary target first
	State     State
	StartedAt time.Time
	Duration  time.Duration
	Progress  time.Duration

	// contributions accumulate in-range participation per actor, in time
	// credited, and decide proportional reward shares on completion.
	contributions map[string]time.Duration
	contribOrder  []string
}

// TargetID returns the primary target.
func (s *Session) TargetID() string {
	if len(s.Targets) == 0 {
		return ""
	}
	return s.Targets[0]
}

// credit adds in-range participation time for one actor.
func (s *Session) credit(actorID string, dt time.Duration) {
	if _, ok := s.contributions[actorID]; !ok {
		s.contribOrder = append(s.contribOrder, actorID)
	}
	s.contributions[actorID] += dt
}

// dropTarget removes a vanished target, reporting whether any remain.
func (s *Session) dropTarget(id string) bool {
	for i, t := range s.Targets {
		if t == id {
			s.Targets = append(s.Targets[:i], s.Targets[i+1:]...)
			break
		}
	}
	return len(s.Targets) > 0
}

func (s *Session) terminal() bool {
	return s.State == Cancelled || s.State == Completed
}
