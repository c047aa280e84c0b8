// Package trace records the sequence of dispatched events through scheduler
// hooks. Two runs with the same seed and configuration produce identical traces.
package trace

import (
	"github.com/macsim/macsim/sim"
)

// TraceLevel controls the verbosity of dispatch tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every dispatched event.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// DispatchRecord captures one handled event.
type DispatchRecord struct {
	Seq    uint64
	Time   float64
	Target string
	Kind   sim.EventKind
}

// Recorder is a sim.Hook collecting a DispatchRecord after every
// successfully handled event.
type Recorder struct {
	Records []DispatchRecord
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{Records: make([]DispatchRecord, 0)}
}

// Func implements sim.Hook.
func (r *Recorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}
	r.Records = append(r.Records, DispatchRecord{
		Seq:    ctx.Event.Seq(),
		Time:   ctx.Event.Time(),
		Target: ctx.Event.Target().Name(),
		Kind:   ctx.Event.Kind(),
	})
}
