package net

// Wire message shapes. One family of messages per interaction kind:
// "<kind>:start" in, "<kind>:progress" / "<kind>:complete" /
// "<kind>:cancelled" / "<kind>:error" out. Each payload shape is a stable
// contract per message type.

// ClientMessage is the inbound JSON frame.
type ClientMessage struct {
	Type      string  `json:"type"`
	TargetID  string  `json:"targetId,omitempty"`
	SessionID string  `json:"sessionId,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
}

// Message is the outbound JSON frame.
type Message struct {
	Type string `json:"type"`
	TS   int64  `json:"ts,omitempty"`
	Data any    `json:"data,omitempty"`
}

// TickBatch carries one tick's events as a single atomic frame, so clients
// never observe a partial tick.
type TickBatch struct {
	Type   string    `json:"type"` // always "tick"
	TS     int64     `json:"ts"`
	Events []Message `json:"events"`
}

type JoinedPayload struct {
	ActorID string  `json:"actorId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type StartAckPayload struct {
	SessionID string `json:"sessionId"`
	TargetID  string `json:"targetId"`
}

type CooldownStatusPayload struct {
	TargetID    string `json:"targetId"`
	OnCooldown  bool   `json:"onCooldown"`
	RemainingMS int64  `json:"remaining"`
}

type ProgressPayload struct {
	SessionID string `json:"sessionId"`
	Progress  int64  `json:"progress"`
	Duration  int64  `json:"duration"`
}

type CompletePayload struct {
	SessionID string             `json:"sessionId"`
	Rewards   map[string]float64 `json:"rewards"`
}

type SharePayload struct {
	SessionID     string  `json:"sessionId"`
	ParticipantID string  `json:"participantId"`
	Amount        float64 `json:"amount"`
}

type CancelledPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

type EntityPayload struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind,omitempty"`
	Faction string  `json:"faction,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Cause   string  `json:"cause,omitempty"`
}

type CombatPayload struct {
	AttackerID string  `json:"attackerId"`
	DefenderID string  `json:"defenderId"`
	Damage     float64 `json:"damage"`
	Killed     bool    `json:"killed"`
}

type BasePayload struct {
	BaseID  string `json:"baseId"`
	Faction string `json:"faction"`
	Cause   string `json:"cause,omitempty"`
}

type FormationPayload struct {
	FormationID string `json:"formationId"`
	LeaderID    string `json:"leaderId,omitempty"`
}

type FactionPayload struct {
	EntityID string `json:"entityId"`
	From     string `json:"from"`
	To       string `json:"to"`
}
