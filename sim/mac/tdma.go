package mac

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/macsim/macsim/sim"
	"github.com/macsim/macsim/sim/packet"
)

var tdmaEventKinds = []sim.EventKind{sim.EventSlot}

// TDMAStats counts per-node slot outcomes.
type TDMAStats struct {
	Transmitted int // packets sent in an owned slot
	Delivered   int // single receptions handed to the processor
	Collisions  int // slots with more than one reception
	SelfBlocked int // single receptions lost because the node was transmitting
}

// TDMA is a node that transmits only in slot k of a repeating cycle of n
// slots. Receptions are resolved one slot later: a slot yields a packet only
// if exactly one peer transmitted to this node and the node itself was silent.
//
// The node runs a slot event at every slot boundary while it has queued
// packets or an unresolved reception, and sleeps otherwise.
type TDMA struct {
	id        packet.NodeID
	n, k      int
	queue     *packet.Queue
	channel   Channel
	processor Processor
	partners  []packet.NodeID

	// reception state of the slot in progress
	packet          packet.Packet
	currSource      packet.NodeID
	onGoing         int
	lastReceiveTime float64
	lastTransmitted bool

	armed        bool  // a slot event is pending
	lastStepSlot int64 // slot index of the last slot event, -1 before the first

	stats TDMAStats
}

// NewTDMA creates a node owning slot k of an n-slot cycle.
func NewTDMA(id packet.NodeID, channel Channel, queue *packet.Queue, processor Processor, n, k int) *TDMA {
	if n <= 0 || k < 0 || k >= n {
		panic(fmt.Sprintf("NewTDMA: need 0 <= k < n, got n=%d k=%d", n, k))
	}
	if channel == nil || queue == nil || processor == nil {
		panic("NewTDMA: channel, queue and processor must not be nil")
	}
	return &TDMA{
		id:           id,
		n:            n,
		k:            k,
		queue:        queue,
		channel:      channel,
		processor:    processor,
		lastStepSlot: -1,
	}
}

// Replica creates a node for another arena position. It shares the channel
// and processor, gets a fresh queue, and owns the next slot of the cycle.
// Partners are topology specific and are not copied.
func (t *TDMA) Replica(id packet.NodeID) *TDMA {
	return NewTDMA(id, t.channel, t.queue.NewQueue(), t.processor, t.n, (t.k+1)%t.n)
}

// Name implements sim.EventTriggered.
func (t *TDMA) Name() string { return fmt.Sprintf("tdma_%d", t.id) }

// EventKinds implements sim.EventTriggered.
func (t *TDMA) EventKinds() []sim.EventKind { return tdmaEventKinds }

// ID implements Node.
func (t *TDMA) ID() packet.NodeID { return t.id }

// Queue implements Node.
func (t *TDMA) Queue() *packet.Queue { return t.queue }

// Partners implements Node.
func (t *TDMA) Partners() []packet.NodeID { return t.partners }

// SetPartners sets the nodes that hear this node's transmissions.
func (t *TDMA) SetPartners(partners ...packet.NodeID) {
	t.partners = append([]packet.NodeID(nil), partners...)
}

// Slots returns n, the cycle length.
func (t *TDMA) Slots() int { return t.n }

// Slot returns k, the owned slot.
func (t *TDMA) Slot() int { return t.k }

// Stats returns the slot outcome counters.
func (t *TDMA) Stats() TDMAStats { return t.stats }

func slotIndex(s *sim.Scheduler) int64 {
	return int64(math.Round(s.Now() / s.TimeIncrement()))
}

// CheckSending reports whether the current time falls in the owned slot.
func (t *TDMA) CheckSending(s *sim.Scheduler) bool {
	return slotIndex(s)%int64(t.n) == int64(t.k)
}

// OnEvent implements sim.EventTriggered.
func (t *TDMA) OnEvent(time float64, kind sim.EventKind, s *sim.Scheduler) error {
	switch kind {
	case sim.EventSlot:
		t.armed = false
		t.lastStepSlot = slotIndex(s)
		if err := t.run(s); err != nil {
			return err
		}
		if !t.queue.IsEmpty() || t.onGoing > 0 {
			return t.Wake(s)
		}
		return nil
	default:
		return sim.NewProtocolViolation(t, kind, time)
	}
}

// run performs one protocol step: resolve the previous slot, then transmit
// one packet if this is the owned slot.
func (t *TDMA) run(s *sim.Scheduler) error {
	if err := t.flushReceived(s); err != nil {
		return err
	}
	if !t.processor.HasPkt(t.queue) || !t.CheckSending(s) {
		return nil
	}
	sendPack := t.processor.Get(t.queue)
	t.lastTransmitted = true
	t.stats.Transmitted++
	logrus.Debugf("[t=%g] %s transmits %v to %v", s.Now(), t.Name(), sendPack, t.partners)
	return t.channel.Transmit(t.id, t.partners, sendPack, s)
}

// Receive implements Node.
func (t *TDMA) Receive(source packet.NodeID, p packet.Packet, s *sim.Scheduler) error {
	if err := t.flushReceived(s); err != nil {
		return err
	}
	t.onGoing++
	t.packet = p
	t.currSource = source
	return t.Wake(s)
}

// flushReceived resolves the reception outcome of the previous slot once,
// the first time it is called at a new timestamp.
func (t *TDMA) flushReceived(s *sim.Scheduler) error {
	now := s.Now()
	if t.lastReceiveTime != now {
		var err error
		switch {
		case t.onGoing == 1 && !t.lastTransmitted:
			t.stats.Delivered++
			err = t.processor.Receive(t.currSource, t.id, t.packet, t.queue, s)
		case t.onGoing == 1:
			t.stats.SelfBlocked++
		case t.onGoing > 1:
			t.stats.Collisions++
			logrus.Debugf("[t=%g] %s lost a slot to a %d-way collision", now, t.Name(), t.onGoing)
		}
		t.onGoing = 0
		t.lastTransmitted = false
		t.packet = nil
		if err != nil {
			t.lastReceiveTime = now
			return err
		}
	}
	t.lastReceiveTime = now
	return nil
}

// Wake implements Node. It arms a slot event at the next slot boundary this
// node has not stepped yet. At most one slot event is pending at a time.
func (t *TDMA) Wake(s *sim.Scheduler) error {
	return t.armFrom(s, s.Now())
}

// Trigger bootstraps the node: its first slot event fires at the first slot
// boundary at or after delayFromNow. A pending slot event takes precedence.
func (t *TDMA) Trigger(s *sim.Scheduler, delayFromNow float64) error {
	if !(delayFromNow >= 0) || math.IsInf(delayFromNow, 0) {
		return &sim.TemporalViolationError{Target: t.Name(), Kind: sim.EventSlot, Time: s.Now() + delayFromNow, Now: s.Now()}
	}
	return t.armFrom(s, s.Now()+delayFromNow)
}

func (t *TDMA) armFrom(s *sim.Scheduler, from float64) error {
	if t.armed {
		return nil
	}
	inc := s.TimeIncrement()
	idx := int64(math.Ceil(from/inc - 1e-9))
	if idx <= t.lastStepSlot {
		idx = t.lastStepSlot + 1
	}
	at := float64(idx) * inc
	if at < s.Now() {
		at = s.Now()
	}
	if err := s.Schedule(at, t, sim.EventSlot); err != nil {
		return err
	}
	t.armed = true
	return nil
}
