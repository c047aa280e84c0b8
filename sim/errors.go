package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation marks dispatch of an event kind its target does not accept.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrTemporalViolation marks an attempt to schedule an event in the past.
	ErrTemporalViolation = errors.New("temporal violation")
)

// ProtocolViolationError identifies the offending target/event pair.
type ProtocolViolationError struct {
	Target string
	Kind   EventKind
	Time   float64
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("%v: %s encounters unknown event %s at t=%g", ErrProtocolViolation, e.Target, e.Kind, e.Time)
}

func (e *ProtocolViolationError) Unwrap() error { return ErrProtocolViolation }

// NewProtocolViolation builds the error a target returns from the default arm
// of its event switch.
func NewProtocolViolation(target EventTriggered, kind EventKind, time float64) error {
	return &ProtocolViolationError{Target: target.Name(), Kind: kind, Time: time}
}

// TemporalViolationError reports an event scheduled before the current time.
type TemporalViolationError struct {
	Target string
	Kind   EventKind
	Time   float64
	Now    float64
}

func (e *TemporalViolationError) Error() string {
	return fmt.Sprintf("%v: %s event for %s at t=%g is before now=%g", ErrTemporalViolation, e.Kind, e.Target, e.Time, e.Now)
}

func (e *TemporalViolationError) Unwrap() error { return ErrTemporalViolation }

// DispatchError wraps a handler failure with the dispatch context.
type DispatchError struct {
	Event Event
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatching %s to %s at t=%g: %v", e.Event.kind, e.Event.target.Name(), e.Event.time, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
