package sim

import "sync"

// Command is one buffered client request. The network layer fills it in and
// the input phase drains it; nothing outside the tick goroutine ever
// touches simulation state directly.
type Command struct {
	ActorID   string
	Verb      string // e.g. "mine:start", "mine:cancel", "move", "leave"
	SessionID string
	TargetID  string
	X, Y      float64

	// Payload carries results re-entering the loop from the collaborator
	// layer (profile loads and similar), never raw client data.
	Payload any

	// Reply sends a direct response (errors, cooldown status) back to the
	// requesting client only. May be nil for fire-and-forget commands.
	Reply func(msg any)
}

// Inbox buffers inbound requests between ticks. Producers are network
// goroutines; the single consumer is the input phase at tick start, so every
// request observes a consistent world snapshot and ordering is deterministic
// by arrival into the inbox.
type Inbox struct {
	mu    sync.Mutex
	queue []Command
}

func NewInbox() *Inbox {
	return &Inbox{queue: make([]Command, 0, 128)}
}

func (in *Inbox) Push(cmd Command) {
	in.mu.Lock()
	in.queue = append(in.queue, cmd)
	in.mu.Unlock()
}

// Drain swaps out the queued commands in order.
func (in *Inbox) Drain() []Command {
	in.mu.Lock()
	out := in.queue
	in.queue = make([]Command, 0, cap(out))
	in.mu.Unlock()
	return out
}

func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}
