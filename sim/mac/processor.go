package mac

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/macsim/macsim/sim"
	"github.com/macsim/macsim/sim/packet"
)

// Processor is the routing capability a MAC node delegates to.
type Processor interface {
	// HasPkt reports whether q holds a packet to send.
	HasPkt(q *packet.Queue) bool
	// Get removes the next packet to send from q.
	Get(q *packet.Queue) packet.Packet
	// Receive decides what happens to a packet current received from source.
	Receive(source, current packet.NodeID, p packet.Packet, q *packet.Queue, clock sim.Clock) error
}

// Sink records packets that reached their destination.
type Sink interface {
	Record(p *packet.Routed)
}

// NopSink discards every record.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(*packet.Routed) {}

// MismatchPolicy selects what the relay does with a packet whose declared
// next hop after the sender is not the receiving node. On a broadcast
// medium every non-next-hop neighbour overhears transmissions, so such
// packets are routine. Upstream overhearing dominates RelayStats.Anomalies:
// on route [0 1 2], node 0 hears node 1 forward to node 2, which is an
// anomaly at node 0. MismatchFail therefore aborts on any multihop route
// whose upstream nodes hear their successors.
type MismatchPolicy int

const (
	// MismatchDrop discards the packet silently. Anomalies are still counted.
	MismatchDrop MismatchPolicy = iota
	// MismatchWarn discards the packet and logs a warning.
	MismatchWarn
	// MismatchFail aborts the run with a *RoutingAnomalyError.
	MismatchFail
)

var mismatchPolicyNames = map[string]MismatchPolicy{
	"drop": MismatchDrop,
	"warn": MismatchWarn,
	"fail": MismatchFail,
	"":     MismatchDrop, // empty defaults to drop
}

// ParseMismatchPolicy maps a configuration string to a policy.
func ParseMismatchPolicy(s string) (MismatchPolicy, error) {
	p, ok := mismatchPolicyNames[s]
	if !ok {
		return MismatchDrop, fmt.Errorf("unknown mismatch policy %q; valid: drop, warn, fail", s)
	}
	return p, nil
}

func (p MismatchPolicy) String() string {
	switch p {
	case MismatchDrop:
		return "drop"
	case MismatchWarn:
		return "warn"
	case MismatchFail:
		return "fail"
	}
	return fmt.Sprintf("MismatchPolicy(%d)", int(p))
}

var (
	// ErrRoutingAnomaly marks a packet received off its route.
	ErrRoutingAnomaly = errors.New("routing anomaly")
	// ErrNotRouted marks a packet crossing a relay without a route.
	ErrNotRouted = errors.New("packet is not routed")
)

// RoutingAnomalyError describes a packet whose next hop after Source is not Current.
type RoutingAnomalyError struct {
	Source  packet.NodeID
	Current packet.NodeID
	Route   packet.Route
	Time    float64
}

func (e *RoutingAnomalyError) Error() string {
	return fmt.Sprintf("%v: node %d received packet on route %v from %d at t=%g", ErrRoutingAnomaly, e.Current, e.Route, e.Source, e.Time)
}

func (e *RoutingAnomalyError) Unwrap() error { return ErrRoutingAnomaly }

// RelayStats counts relay outcomes across every node sharing the relay.
type RelayStats struct {
	Delivered int
	Forwarded int
	Anomalies int
}

// RouteRelay is a store-and-forward Processor over FIFO queues. Packets that
// reach their destination are stamped and handed to the sink; others are
// re-enqueued for the next hop.
type RouteRelay struct {
	sink   Sink
	policy MismatchPolicy
	stats  RelayStats
}

// NewRouteRelay creates a relay. A nil sink records nothing.
func NewRouteRelay(sink Sink, policy MismatchPolicy) *RouteRelay {
	if sink == nil {
		sink = NopSink{}
	}
	return &RouteRelay{sink: sink, policy: policy}
}

// Stats returns the outcome counters.
func (r *RouteRelay) Stats() RelayStats { return r.stats }

// Policy returns the mismatch policy.
func (r *RouteRelay) Policy() MismatchPolicy { return r.policy }

// HasPkt implements Processor.
func (r *RouteRelay) HasPkt(q *packet.Queue) bool { return !q.IsEmpty() }

// Get implements Processor.
func (r *RouteRelay) Get(q *packet.Queue) packet.Packet { return q.Dequeue() }

// Receive implements Processor.
func (r *RouteRelay) Receive(source, current packet.NodeID, p packet.Packet, q *packet.Queue, clock sim.Clock) error {
	pkt, ok := p.(*packet.Routed)
	if !ok {
		return fmt.Errorf("node %d received %T: %w", current, p, ErrNotRouted)
	}

	if next, ok := pkt.Route.NextHop(source); !ok || next != current {
		r.stats.Anomalies++
		switch r.policy {
		case MismatchWarn:
			logrus.Warnf("[t=%g] node %d dropped %v received from %d off route", clock.Now(), current, pkt, source)
		case MismatchFail:
			return &RoutingAnomalyError{Source: source, Current: current, Route: pkt.Route, Time: clock.Now()}
		}
		return nil
	}

	if pkt.Route.Destination() == current {
		pkt.RecordEnd(clock.Now())
		r.stats.Delivered++
		logrus.Debugf("[t=%g] node %d delivered %v (delay %g)", clock.Now(), current, pkt, pkt.Delay())
		r.sink.Record(pkt)
		return nil
	}

	r.stats.Forwarded++
	q.Enqueue(pkt)
	return nil
}
