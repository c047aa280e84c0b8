// sim/scheduler.go
package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// eventHeap implements heap.Interface.
// Ordering: time, then insertion sequence (earlier insert first).
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// Scheduler owns simulated time and the pending-event queue, and drives the
// simulation loop. Dispatch is single-threaded: a handler finishes, including
// any scheduling it does, before the next event is popped.
//
// Thread-safety: NOT thread-safe. Must be driven from a single goroutine.
type Scheduler struct {
	now           float64
	timeIncrement float64
	horizon       float64
	events        eventHeap
	nextSeq       uint64
	dispatched    uint64
	stopped       bool
	hooks         []Hook
}

// NewScheduler creates a scheduler at time 0 with the given slot granularity.
// Panics if timeIncrement is not a positive finite number.
func NewScheduler(timeIncrement float64) *Scheduler {
	if !(timeIncrement > 0) || math.IsInf(timeIncrement, 0) {
		panic(fmt.Sprintf("NewScheduler: timeIncrement must be positive and finite, got %v", timeIncrement))
	}
	s := &Scheduler{
		timeIncrement: timeIncrement,
		horizon:       math.Inf(1),
		events:        make(eventHeap, 0),
	}
	heap.Init(&s.events)
	return s
}

// Now returns the current simulated time.
func (s *Scheduler) Now() float64 { return s.now }

// TimeIncrement returns the slot duration.
func (s *Scheduler) TimeIncrement() float64 { return s.timeIncrement }

// Horizon returns the time after which Run stops dispatching.
func (s *Scheduler) Horizon() float64 { return s.horizon }

// SetHorizon bounds the run: events later than h stay pending.
func (s *Scheduler) SetHorizon(h float64) { s.horizon = h }

// Pending returns the number of scheduled, undispatched events.
func (s *Scheduler) Pending() int { return len(s.events) }

// Dispatched returns the number of events handled so far.
func (s *Scheduler) Dispatched() uint64 { return s.dispatched }

// AcceptHook registers a hook invoked around every dispatch.
func (s *Scheduler) AcceptHook(h Hook) {
	s.hooks = append(s.hooks, h)
}

func (s *Scheduler) invokeHooks(pos *HookPos, ev Event) {
	for _, h := range s.hooks {
		h.Func(HookCtx{Pos: pos, Event: ev, Now: s.now})
	}
}

// Schedule inserts an event for target at an absolute time. Events at the
// current time are allowed and fire after every event already queued for
// that time. A time earlier than Now returns a *TemporalViolationError.
func (s *Scheduler) Schedule(time float64, target EventTriggered, kind EventKind) error {
	if target == nil {
		panic("Schedule: target must not be nil")
	}
	if math.IsNaN(time) || time < s.now {
		return &TemporalViolationError{Target: target.Name(), Kind: kind, Time: time, Now: s.now}
	}
	ev := Event{time: time, target: target, kind: kind, seq: s.nextSeq}
	s.nextSeq++
	heap.Push(&s.events, ev)
	return nil
}

// After schedules an event delay time units from now.
func (s *Scheduler) After(delay float64, target EventTriggered, kind EventKind) error {
	return s.Schedule(s.now+delay, target, kind)
}

// Peek returns the next event without removing it.
func (s *Scheduler) Peek() (Event, bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	return s.events[0], true
}

// Stop makes Run return once the event in flight has been handled.
// Pending events are kept.
func (s *Scheduler) Stop() { s.stopped = true }

// Step dispatches the earliest pending event. It reports false when nothing
// is left to dispatch within the horizon.
func (s *Scheduler) Step() (bool, error) {
	next, ok := s.Peek()
	if !ok || next.time > s.horizon {
		return false, nil
	}
	ev := heap.Pop(&s.events).(Event)
	s.now = ev.time

	if !accepts(ev.target, ev.kind) {
		return false, &DispatchError{Event: ev, Err: NewProtocolViolation(ev.target, ev.kind, ev.time)}
	}

	logrus.Debugf("[t=%g] dispatching %s to %s", s.now, ev.kind, ev.target.Name())
	s.invokeHooks(HookPosBeforeEvent, ev)
	if err := ev.target.OnEvent(ev.time, ev.kind, s); err != nil {
		return false, &DispatchError{Event: ev, Err: err}
	}
	s.dispatched++
	s.invokeHooks(HookPosAfterEvent, ev)
	return true, nil
}

// Run dispatches events in (time, insertion) order until the queue drains,
// the horizon is passed, Stop is called, or a handler fails. Protocol and
// temporal violations abort the run; the returned error names the target
// and simulated time.
func (s *Scheduler) Run() error {
	s.stopped = false
	for !s.stopped {
		more, err := s.Step()
		if err != nil {
			logrus.Errorf("[t=%g] simulation aborted: %v", s.now, err)
			return err
		}
		if !more {
			break
		}
	}
	logrus.Infof("[t=%g] simulation ended after %d events, %d pending", s.now, s.dispatched, len(s.events))
	return nil
}
