package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/endotherm/thermoreg"
)

// Trace accumulates escalation events for one solve.
type Trace struct {
	events []EscalationEvent
	counts map[thermoreg.Stage]int
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{counts: make(map[thermoreg.Stage]int)}
}

// Record appends one policy pass. Its signature matches thermoreg.Policy.Observe.
func (t *Trace) Record(it thermoreg.Iteration) {
	t.events = append(t.events, NewEscalationEvent(it))
	if it.Stage != thermoreg.StageNone {
		t.counts[it.Stage]++
	}
}

// Events returns the recorded events in order.
func (t *Trace) Events() []EscalationEvent {
	if t == nil {
		return nil
	}
	return t.events
}

// Steps returns how many times the given effector was advanced.
func (t *Trace) Steps(st thermoreg.Stage) int {
	if t == nil {
		return 0
	}
	return t.counts[st]
}

// LogValue implements slog.LogValuer with the step count of each effector.
func (t *Trace) LogValue() slog.Value {
	stages := thermoreg.Order()
	attrs := make([]slog.Attr, 0, len(stages))
	for _, st := range stages {
		attrs = append(attrs, slog.Int(st.String(), t.Steps(st)))
	}
	return slog.GroupValue(attrs...)
}
