package event

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultSubscriberLimit caps registrations per event type. Hitting it means
// some subsystem registers in a loop instead of once at boot.
const DefaultSubscriberLimit = 50

// CapacityError reports a subscriber registration beyond the per-type limit.
// This is a code defect, fatal at registration time.
type CapacityError struct {
	Type  string
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("event: subscriber limit %d exceeded for %s", e.Limit, e.Type)
}

// Envelope wraps one emitted event for the per-tick broadcast batch.
// Timestamp is unix milliseconds, strictly increasing across emits.
type Envelope struct {
	Type      string
	Timestamp int64
	Payload   any
}

// Bus is a synchronous typed publish/subscribe bus. Delivery happens inside
// Emit, on the caller's goroutine, within the same tick. There is no queue:
// no event is ever dropped and there is no backpressure.
//
// Payloads are immutable by contract: publishers build them complete and
// never patch after emit; subscribers copy rather than mutate.
type Bus struct {
	mu       sync.Mutex // protects handler registration only
	handlers map[reflect.Type][]any
	limit    int
	log      *zap.Logger

	batch  []Envelope
	lastTS int64
	now    func() time.Time
}

func NewBus(limit int, log *zap.Logger) *Bus {
	if limit <= 0 {
		limit = DefaultSubscriberLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[reflect.Type][]any),
		limit:    limit,
		log:      log,
		batch:    make([]Envelope, 0, 64),
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source. Tests only.
func (b *Bus) SetClock(now func() time.Time) { b.now = now }

// Subscribe registers a typed handler for events of type T. Registration
// beyond the bus limit fails loudly: unbounded subscription is a defect.
func Subscribe[T any](b *Bus, fn func(T)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	if len(b.handlers[t]) >= b.limit {
		return &CapacityError{Type: t.Name(), Limit: b.limit}
	}
	b.handlers[t] = append(b.handlers[t], fn)
	return nil
}

// MustSubscribe is Subscribe for boot-time wiring, where a CapacityError
// can only mean broken code.
func MustSubscribe[T any](b *Bus, fn func(T)) {
	if err := Subscribe(b, fn); err != nil {
		panic(err)
	}
}

// Emit delivers the event to every subscribed handler, synchronously, and
// appends an envelope to the current tick batch. A handler that panics is
// isolated: the panic is recovered and logged, remaining handlers still run,
// and the publisher is unaffected.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.batch = append(b.batch, Envelope{
		Type:      t.Name(),
		Timestamp: b.timestamp(),
		Payload:   ev,
	})
	for _, h := range b.handlers[t] {
		fn := h.(func(T))
		b.dispatch(t.Name(), func() { fn(ev) })
	}
}

func (b *Bus) dispatch(name string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event subscriber panicked",
				zap.String("event", name),
				zap.Any("panic", r),
			)
		}
	}()
	call()
}

// DrainBatch returns the envelopes accumulated since the last drain and
// resets the batch. Called once per tick by the output phase so clients
// observe the tick as one atomic snapshot.
func (b *Bus) DrainBatch() []Envelope {
	if len(b.batch) == 0 {
		return nil
	}
	out := b.batch
	b.batch = make([]Envelope, 0, cap(out))
	return out
}

// timestamp returns unix millis, forced strictly monotonic so consumers can
// order events even when several land in the same millisecond.
func (b *Bus) timestamp() int64 {
	ts := b.now().UnixMilli()
	if ts <= b.lastTS {
		ts = b.lastTS + 1
	}
	b.lastTS = ts
	return ts
}
