// Package source generates packets at stochastic intervals and injects them
// into a node's queue.
package source

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/macsim/macsim/sim"
	"github.com/macsim/macsim/sim/packet"
)

// Target is the node a source feeds. Wake asks the node to re-evaluate its
// transmit/receive logic after a packet was added to its queue.
type Target interface {
	Queue() *packet.Queue
	Wake(s *sim.Scheduler) error
}

var sourceEventKinds = []sim.EventKind{sim.EventArrival}

// PacketSource has a single waiting state, represented by a pending arrival
// event. Each arrival generates one packet until the cap is reached.
type PacketSource struct {
	name         string
	interarrival Distribution
	template     packet.Packet
	target       Target
	maxPackets   int // 0 = unlimited
	generated    int
}

// NewPacketSource creates a source that clones template into target's queue.
// maxPackets caps the number of generated packets; 0 means unlimited.
func NewPacketSource(name string, interarrival Distribution, template packet.Packet, target Target, maxPackets int) *PacketSource {
	if interarrival == nil || template == nil || target == nil {
		panic("NewPacketSource: interarrival, template and target must not be nil")
	}
	if maxPackets < 0 {
		panic(fmt.Sprintf("NewPacketSource: maxPackets must be >= 0, got %d", maxPackets))
	}
	return &PacketSource{
		name:         name,
		interarrival: interarrival,
		template:     template,
		target:       target,
		maxPackets:   maxPackets,
	}
}

// Name implements sim.EventTriggered.
func (ps *PacketSource) Name() string { return ps.name }

// EventKinds implements sim.EventTriggered.
func (ps *PacketSource) EventKinds() []sim.EventKind { return sourceEventKinds }

// Generated returns how many packets have been generated.
func (ps *PacketSource) Generated() int { return ps.generated }

// MaxPackets returns the configured cap (0 = unlimited).
func (ps *PacketSource) MaxPackets() int { return ps.maxPackets }

func (ps *PacketSource) underCap() bool {
	return ps.maxPackets == 0 || ps.generated < ps.maxPackets
}

// Trigger starts packet generation delayFromNow after the current time.
func (ps *PacketSource) Trigger(s *sim.Scheduler, delayFromNow float64) error {
	return s.After(delayFromNow, ps, sim.EventArrival)
}

// OnEvent implements sim.EventTriggered.
func (ps *PacketSource) OnEvent(time float64, kind sim.EventKind, s *sim.Scheduler) error {
	switch kind {
	case sim.EventArrival:
		if err := ps.newPacket(s); err != nil {
			return err
		}
		if ps.underCap() {
			return s.After(ps.interarrival.Sample(), ps, sim.EventArrival)
		}
		logrus.Debugf("[t=%g] %s reached cap of %d packets", time, ps.name, ps.maxPackets)
		return nil
	default:
		return sim.NewProtocolViolation(ps, kind, time)
	}
}

// newPacket generates one packet if the cap allows it. Timed templates are
// stamped with the next sequence number and the current time.
func (ps *PacketSource) newPacket(s *sim.Scheduler) error {
	if !ps.underCap() {
		return nil
	}
	var pkt packet.Packet
	if tf, ok := ps.template.(packet.TimedFactory); ok {
		seq := tf.DuplicateAt(s.Now())
		seq.SetSeqNumber(ps.generated + 1)
		pkt = seq
	} else {
		pkt = ps.template.Duplicate()
	}
	logrus.Debugf("[t=%g] %s generated %v", s.Now(), ps.name, pkt)
	ps.target.Queue().Enqueue(pkt)
	err := ps.target.Wake(s)
	ps.generated++
	return err
}
