package mac

import (
	"github.com/stretchr/testify/mock"

	"github.com/macsim/macsim/sim"
	"github.com/macsim/macsim/sim/packet"
)

type fakeClock float64

func (c fakeClock) Now() float64 { return float64(c) }

// transmission is one Transmit call seen by spyChannel.
type transmission struct {
	Time      float64
	Sender    packet.NodeID
	Receivers []packet.NodeID
	Packet    packet.Packet
}

// spyChannel records transmissions and optionally forwards them.
type spyChannel struct {
	inner Channel
	sent  []transmission
}

func (c *spyChannel) Transmit(sender packet.NodeID, receivers []packet.NodeID, p packet.Packet, s *sim.Scheduler) error {
	c.sent = append(c.sent, transmission{Time: s.Now(), Sender: sender, Receivers: receivers, Packet: p})
	if c.inner != nil {
		return c.inner.Transmit(sender, receivers, p, s)
	}
	return nil
}

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) HasPkt(q *packet.Queue) bool {
	return m.Called(q).Bool(0)
}

func (m *mockProcessor) Get(q *packet.Queue) packet.Packet {
	return m.Called(q).Get(0).(packet.Packet)
}

func (m *mockProcessor) Receive(source, current packet.NodeID, p packet.Packet, q *packet.Queue, clock sim.Clock) error {
	return m.Called(source, current, p, q, clock).Error(0)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Record(p *packet.Routed) {
	m.Called(p)
}
