// Package mac implements medium access: the node arena and its broadcast
// channel, the TDMA node state machine, and the store-and-forward route relay
// that nodes delegate received packets to.
package mac

import (
	"fmt"
	"math/rand"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/macsim/macsim/sim"
	"github.com/macsim/macsim/sim/packet"
)

// Node is a MAC protocol entity living in a Network arena.
type Node interface {
	sim.EventTriggered

	ID() packet.NodeID
	Queue() *packet.Queue
	// Partners returns the nodes that hear this node's transmissions.
	Partners() []packet.NodeID
	// Receive is invoked by the channel on behalf of a transmitting peer.
	Receive(source packet.NodeID, p packet.Packet, s *sim.Scheduler) error
	// Wake asks the node to re-evaluate its transmit/receive logic.
	Wake(s *sim.Scheduler) error
}

// Channel fans a transmitted packet out to a set of receivers. Delivery is
// synchronous within the current dispatch.
type Channel interface {
	Transmit(sender packet.NodeID, receivers []packet.NodeID, p packet.Packet, s *sim.Scheduler) error
}

// Network owns every node of a run. Cross references between nodes are
// NodeIDs indexing into the arena.
type Network struct {
	nodes []Node
}

// NewNetwork creates an empty arena.
func NewNetwork() *Network {
	return &Network{}
}

// Add allocates the next NodeID and stores the node built for it.
// Panics if build returns a node with a different ID.
func (n *Network) Add(build func(id packet.NodeID) Node) Node {
	id := packet.NodeID(len(n.nodes))
	node := build(id)
	if node == nil || node.ID() != id {
		panic(fmt.Sprintf("Network.Add: builder must return a node with ID %d", id))
	}
	n.nodes = append(n.nodes, node)
	return node
}

// Node returns the node with the given ID.
func (n *Network) Node(id packet.NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(n.nodes) {
		return nil, false
	}
	return n.nodes[id], true
}

// Len returns the number of nodes.
func (n *Network) Len() int { return len(n.nodes) }

// Nodes returns the arena contents in ID order. Callers MUST NOT modify the slice.
func (n *Network) Nodes() []Node { return n.nodes }

// Transmit implements Channel. Receivers are called in list order, which is
// the tie-break order of logically simultaneous receptions.
func (n *Network) Transmit(sender packet.NodeID, receivers []packet.NodeID, p packet.Packet, s *sim.Scheduler) error {
	for _, r := range receivers {
		node, ok := n.Node(r)
		if !ok {
			return fmt.Errorf("node %d transmits to unknown node %d", sender, r)
		}
		if err := node.Receive(sender, p, s); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports every partner reference that does not resolve to another
// node in the arena.
func (n *Network) Validate() error {
	var result error
	for _, node := range n.nodes {
		for _, p := range node.Partners() {
			if p == node.ID() {
				result = multierror.Append(result, fmt.Errorf("node %d lists itself as a transmit partner", p))
				continue
			}
			if _, ok := n.Node(p); !ok {
				result = multierror.Append(result, fmt.Errorf("node %d lists unknown transmit partner %d", node.ID(), p))
			}
		}
	}
	return result
}

// LossyChannel drops each individual reception with a fixed probability
// before handing the rest to the wrapped channel.
type LossyChannel struct {
	inner   Channel
	loss    float64
	rng     *rand.Rand
	dropped int
}

// NewLossyChannel wraps inner. Panics if loss is outside [0, 1].
func NewLossyChannel(inner Channel, loss float64, rng *rand.Rand) *LossyChannel {
	if loss < 0 || loss > 1 {
		panic(fmt.Sprintf("NewLossyChannel: loss must be in [0, 1], got %g", loss))
	}
	return &LossyChannel{inner: inner, loss: loss, rng: rng}
}

// Transmit implements Channel.
func (c *LossyChannel) Transmit(sender packet.NodeID, receivers []packet.NodeID, p packet.Packet, s *sim.Scheduler) error {
	kept := make([]packet.NodeID, 0, len(receivers))
	for _, r := range receivers {
		if c.rng.Float64() < c.loss {
			c.dropped++
			logrus.Debugf("[t=%g] channel dropped %v from %d to %d", s.Now(), p, sender, r)
			continue
		}
		kept = append(kept, r)
	}
	return c.inner.Transmit(sender, kept, p, s)
}

// Dropped returns the number of receptions lost on the channel.
func (c *LossyChannel) Dropped() int { return c.dropped }
