package system

import (
	"testing"
	"time"
)

type traceSystem struct {
	phase Phase
	name  string
	trace *[]string
}

func (s *traceSystem) Phase() Phase { return s.phase }

func (s *traceSystem) Update(time.Duration) {
	*s.trace = append(*s.trace, s.name)
}

func TestRunnerPhaseOrdering(t *testing.T) {
	var trace []string
	r := NewRunner()
	// Register out of phase order on purpose.
	r.Register(&traceSystem{phase: PhaseOutput, name: "output", trace: &trace})
	r.Register(&traceSystem{phase: PhaseInput, name: "input", trace: &trace})
	r.Register(&traceSystem{phase: PhaseInteract, name: "interact", trace: &trace})
	r.Register(&traceSystem{phase: PhaseUpdate, name: "update", trace: &trace})

	r.Tick(time.Millisecond)

	want := []string{"input", "update", "interact", "output"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v", trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestRunnerStableWithinPhase(t *testing.T) {
	var trace []string
	r := NewRunner()
	r.Register(&traceSystem{phase: PhaseUpdate, name: "first", trace: &trace})
	r.Register(&traceSystem{phase: PhaseUpdate, name: "second", trace: &trace})
	r.Register(&traceSystem{phase: PhaseUpdate, name: "third", trace: &trace})

	r.Tick(time.Millisecond)
	r.Tick(time.Millisecond)

	want := []string{"first", "second", "third", "first", "second", "third"}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("registration order not preserved: %v", trace)
		}
	}
}

func TestRunnerLateRegistrationResorts(t *testing.T) {
	var trace []string
	r := NewRunner()
	r.Register(&traceSystem{phase: PhaseOutput, name: "output", trace: &trace})
	r.Tick(time.Millisecond)

	trace = trace[:0]
	r.Register(&traceSystem{phase: PhaseInput, name: "input", trace: &trace})
	r.Tick(time.Millisecond)

	if len(trace) != 2 || trace[0] != "input" {
		t.Fatalf("late registration not sorted into place: %v", trace)
	}
}
