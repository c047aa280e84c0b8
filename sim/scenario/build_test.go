package scenario

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macsim/macsim/sim"
	"github.com/macsim/macsim/sim/mac"
	"github.com/macsim/macsim/sim/packet"
	"github.com/macsim/macsim/sim/source"
	"github.com/macsim/macsim/sim/trace"
)

func TestBuild_LineSlotsComeFromReplicas(t *testing.T) {
	// GIVEN a 5-node line with a 3-slot cycle
	sc := lineScenario()
	sc.Topology = TopologySpec{Kind: TopologyLine, Nodes: 5, Slots: 3}

	r, err := Build(sc, Options{})
	require.NoError(t, err)

	// THEN slots rotate and partners are the immediate neighbours
	var slots []int
	for _, n := range r.Nodes {
		slots = append(slots, n.Slot())
		assert.Equal(t, 3, n.Slots())
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1}, slots)
	assert.Equal(t, []packet.NodeID{1}, r.Nodes[0].Partners())
	assert.Equal(t, []packet.NodeID{1, 3}, r.Nodes[2].Partners())
	assert.Equal(t, []packet.NodeID{3}, r.Nodes[4].Partners())
	assert.NotEmpty(t, r.ID)
	assert.Nil(t, r.Lossy)
	assert.Nil(t, r.Trace)
}

func TestNeighbours_Ring(t *testing.T) {
	assert.Equal(t, []packet.NodeID{3, 1}, neighbours(TopologySpec{Kind: TopologyRing, Nodes: 4}, 0))
	assert.Equal(t, []packet.NodeID{1}, neighbours(TopologySpec{Kind: TopologyRing, Nodes: 2}, 0))
	assert.Empty(t, neighbours(TopologySpec{Kind: TopologyRing, Nodes: 1}, 0))
}

func TestBuild_UnreachableRoute(t *testing.T) {
	// GIVEN a line where node 0 cannot hear node 2 directly
	sc := lineScenario()
	sc.Flows[0].Route = []int{0, 2}

	_, err := Build(sc, Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot hear")
}

func TestBuild_InvalidTraceLevel(t *testing.T) {
	_, err := Build(lineScenario(), Options{TraceLevel: "verbose"})
	assert.Error(t, err)
}

func TestRun_LineDeliversEveryPacket(t *testing.T) {
	// GIVEN one packet every 4 time units along a 4-node line
	r, err := Build(lineScenario(), Options{})
	require.NoError(t, err)

	// WHEN the run drains
	require.NoError(t, r.Execute())

	// THEN every packet arrives three slots after creation
	s := r.Collector.Summarize()
	assert.Equal(t, 10, s.Delivered)
	assert.InDelta(t, 3.0, s.MeanDelay, 1e-9)
	assert.Equal(t, 3.0, s.MaxDelay)
	assert.Equal(t, 10, r.Sources[0].Generated())
	for _, n := range r.Nodes {
		assert.Equal(t, 0, n.Stats().Collisions)
		assert.True(t, n.Queue().IsEmpty())
	}
	rs := r.Relay.Stats()
	assert.Equal(t, 10, rs.Delivered)
	assert.Equal(t, 20, rs.Forwarded)
	assert.Equal(t, 20, rs.Anomalies, "upstream neighbours overhear every forward")
}

func TestRun_HiddenTerminalCollides(t *testing.T) {
	// GIVEN nodes 0 and 2 sharing slot 0 and both sending to node 1 at once
	sc := &Scenario{
		Topology: TopologySpec{Kind: TopologyLine, Nodes: 3, Slots: 2},
		Flows: []FlowSpec{
			{Route: []int{0, 1}, Arrival: source.DistSpec{Process: "deterministic", Value: 2}, MaxPackets: 5},
			{Route: []int{2, 1}, Arrival: source.DistSpec{Process: "deterministic", Value: 2}, MaxPackets: 5},
		},
	}
	r, err := Build(sc, Options{})
	require.NoError(t, err)

	require.NoError(t, r.Execute())

	// THEN every slot collides at node 1 and nothing is delivered
	assert.Equal(t, 5, r.Nodes[1].Stats().Collisions)
	assert.Equal(t, 0, r.Collector.Summarize().Delivered)
}

func TestRun_FailPolicyAbortsOnOverheardPacket(t *testing.T) {
	sc := lineScenario()
	sc.MismatchPolicy = "fail"
	r, err := Build(sc, Options{})
	require.NoError(t, err)

	err = r.Execute()

	require.Error(t, err)
	assert.True(t, errors.Is(err, mac.ErrRoutingAnomaly))
	var de *sim.DispatchError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "tdma_0", de.Event.Target().Name())
}

func TestRun_SameSeedSameTrace(t *testing.T) {
	// GIVEN a stochastic scenario traced twice with the same seed
	build := func() *Run {
		sc := lineScenario()
		sc.Horizon = 300
		sc.Flows[0].Arrival = source.DistSpec{Process: "exponential", Rate: 0.3}
		sc.Flows[0].MaxPackets = 0
		sc.LossProbability = 0.1
		r, err := Build(sc, Options{TraceLevel: trace.TraceLevelEvents})
		require.NoError(t, err)
		require.NoError(t, r.Execute())
		return r
	}

	a, b := build(), build()

	// THEN the dispatch sequences and outcomes are identical
	require.NotEmpty(t, a.Trace.Records)
	assert.Equal(t, a.Trace.Records, b.Trace.Records)
	assert.Equal(t, a.Collector.Summarize(), b.Collector.Summarize())
	assert.Equal(t, a.Lossy.Dropped(), b.Lossy.Dropped())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRun_Report(t *testing.T) {
	r, err := Build(lineScenario(), Options{TraceLevel: trace.TraceLevelEvents})
	require.NoError(t, err)
	require.NoError(t, r.Execute())

	var buf bytes.Buffer
	r.Report(&buf)
	out := buf.String()

	assert.Contains(t, out, "=== Simulation Summary ===")
	assert.Contains(t, out, r.ID)
	assert.Contains(t, out, "Packets Generated    : 10")
	assert.Contains(t, out, "node 3")
	assert.Contains(t, out, "Delivered Packets    : 10")
	assert.Contains(t, out, "=== Dispatch Trace ===")
}

func TestRun_ChannelLossLeavesArrivalsUnchanged(t *testing.T) {
	// GIVEN the same seeded exponential flow with and without channel loss
	arrivals := func(loss float64) []float64 {
		sc := lineScenario()
		sc.Flows[0].Arrival = source.DistSpec{Process: "exponential", Rate: 0.3}
		sc.LossProbability = loss
		r, err := Build(sc, Options{TraceLevel: trace.TraceLevelEvents})
		require.NoError(t, err)
		require.NoError(t, r.Execute())
		var out []float64
		for _, rec := range r.Trace.Records {
			if rec.Kind == sim.EventArrival {
				out = append(out, rec.Time)
			}
		}
		return out
	}

	// THEN loss draws do not shift the arrival stream
	clean, lossy := arrivals(0), arrivals(0.4)
	require.Len(t, clean, 10)
	assert.Equal(t, clean, lossy)
}
