// Package packet defines the data moved between nodes: packets, the routes
// they follow, and the node-local FIFO queues that hold them.
package packet

import "fmt"

// NodeID is a handle into the node arena owned by a simulation run.
type NodeID int

// Packet is an opaque payload. Duplicate returns an independent copy, which
// lets any packet act as the template of a packet source.
type Packet interface {
	Duplicate() Packet
}

// Sequenced is a packet that carries a sequence number.
type Sequenced interface {
	Packet
	SetSeqNumber(n int)
}

// TimedFactory is a template that stamps its copies with a creation time.
type TimedFactory interface {
	Packet
	DuplicateAt(t float64) Sequenced
}

// Basic is a payload-only packet.
type Basic struct {
	Payload string
}

// Duplicate implements Packet.
func (p *Basic) Duplicate() Packet {
	c := *p
	return &c
}

func (p *Basic) String() string { return fmt.Sprintf("pkt(%s)", p.Payload) }

// Timed carries a sequence number and the time it was created.
type Timed struct {
	Seq     int
	Created float64
}

// Duplicate implements Packet.
func (p *Timed) Duplicate() Packet {
	c := *p
	return &c
}

// DuplicateAt implements TimedFactory.
func (p *Timed) DuplicateAt(t float64) Sequenced {
	c := *p
	c.Created = t
	return &c
}

// SetSeqNumber implements Sequenced.
func (p *Timed) SetSeqNumber(n int) { p.Seq = n }

func (p *Timed) String() string { return fmt.Sprintf("pkt#%d@%g", p.Seq, p.Created) }

// Routed is a timed packet that follows a fixed Route and records when it
// reached its destination.
type Routed struct {
	Timed
	Route     Route
	Completed float64
	done      bool
}

// NewRouted creates a routed packet template for r.
func NewRouted(r Route) *Routed {
	return &Routed{Route: r}
}

// Duplicate implements Packet. The copy is not completed.
func (p *Routed) Duplicate() Packet {
	c := *p
	c.Completed, c.done = 0, false
	return &c
}

// DuplicateAt implements TimedFactory.
func (p *Routed) DuplicateAt(t float64) Sequenced {
	c := p.Duplicate().(*Routed)
	c.Created = t
	return c
}

// RecordEnd stamps the completion time.
func (p *Routed) RecordEnd(t float64) {
	p.Completed = t
	p.done = true
}

// Done reports whether RecordEnd was called.
func (p *Routed) Done() bool { return p.done }

// Delay returns completion minus creation time, or 0 if not completed.
func (p *Routed) Delay() float64 {
	if !p.done {
		return 0
	}
	return p.Completed - p.Created
}

func (p *Routed) String() string {
	return fmt.Sprintf("pkt#%d@%g %v", p.Seq, p.Created, p.Route)
}
