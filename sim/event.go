package sim

import "fmt"

// EventKind enumerates every event a simulation entity can be dispatched.
// The set is closed: each EventTriggered target declares the subset it accepts.
type EventKind int

const (
	// EventArrival ends a packet source's waiting period.
	EventArrival EventKind = iota + 1
	// EventSlot runs one MAC protocol step at a slot boundary.
	EventSlot
)

var eventKindNames = map[EventKind]string{
	EventArrival: "arrival",
	EventSlot:    "slot",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// EventTriggered is implemented by every entity that reacts to dispatched events
// (packet sources, MAC nodes).
type EventTriggered interface {
	// Name identifies the target in fatal error reports and traces.
	Name() string

	// EventKinds returns the fixed set of kinds the target accepts.
	EventKinds() []EventKind

	// OnEvent handles one dispatched event. The scheduler's clock already
	// equals time. A non-nil error aborts the run.
	OnEvent(time float64, kind EventKind, s *Scheduler) error
}

// Event is an immutable (time, target, kind) triple owned by the Scheduler
// until it is dispatched.
type Event struct {
	time   float64
	target EventTriggered
	kind   EventKind
	seq    uint64 // insertion order, assigned by the scheduler
}

// Time returns when the event fires.
func (e Event) Time() float64 { return e.time }

// Target returns the entity the event is dispatched to.
func (e Event) Target() EventTriggered { return e.target }

// Kind returns the event kind.
func (e Event) Kind() EventKind { return e.kind }

// Seq returns the insertion sequence number used to break time ties.
func (e Event) Seq() uint64 { return e.seq }

func (e Event) String() string {
	return fmt.Sprintf("%s@%g->%s", e.kind, e.time, e.target.Name())
}

// accepts reports whether kind is declared by target.
func accepts(target EventTriggered, kind EventKind) bool {
	for _, k := range target.EventKinds() {
		if k == kind {
			return true
		}
	}
	return false
}
