package scenario

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/macsim/macsim/sim"
	"github.com/macsim/macsim/sim/mac"
	"github.com/macsim/macsim/sim/metrics"
	"github.com/macsim/macsim/sim/packet"
	"github.com/macsim/macsim/sim/source"
	"github.com/macsim/macsim/sim/trace"
)

// Run is a fully wired simulation.
type Run struct {
	ID        string
	Scenario  *Scenario
	Scheduler *sim.Scheduler
	Network   *mac.Network
	Nodes     []*mac.TDMA
	Relay     *mac.RouteRelay
	Collector *metrics.Collector
	Sources   []*source.PacketSource
	Lossy     *mac.LossyChannel // nil when loss_probability is 0
	Trace     *trace.Recorder   // nil unless tracing is enabled
}

// Options tune how a scenario is wired.
type Options struct {
	TraceLevel trace.TraceLevel
}

// Build validates sc and wires scheduler, network, relay, collector and
// sources. Sources are triggered at their configured start times.
func Build(sc *Scenario, opts Options) (*Run, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if !trace.IsValidTraceLevel(string(opts.TraceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q", opts.TraceLevel)
	}
	policy, _ := mac.ParseMismatchPolicy(sc.MismatchPolicy)

	r := &Run{
		ID:        xid.New().String(),
		Scenario:  sc,
		Scheduler: sim.NewScheduler(sc.Increment()),
		Network:   mac.NewNetwork(),
		Collector: metrics.NewCollector(),
	}
	if sc.Horizon > 0 {
		r.Scheduler.SetHorizon(sc.Horizon)
	}
	if opts.TraceLevel == trace.TraceLevelEvents {
		r.Trace = trace.NewRecorder()
		r.Scheduler.AcceptHook(r.Trace)
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(sc.Seed))
	var channel mac.Channel = r.Network
	if sc.LossProbability > 0 {
		r.Lossy = mac.NewLossyChannel(r.Network, sc.LossProbability, rng.ForSubsystem(sim.SubsystemChannel))
		channel = r.Lossy
	}
	r.Relay = mac.NewRouteRelay(r.Collector, policy)

	r.buildNodes(channel)
	if err := r.Network.Validate(); err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}
	if err := r.buildSources(rng); err != nil {
		return nil, err
	}

	logrus.Infof("run %s: %d %s nodes, %d slots, %d flows, seed=%d", r.ID, sc.Topology.Nodes, sc.Topology.Kind,
		sc.Topology.SlotCount(), len(sc.Flows), sc.Seed)
	return r, nil
}

func (r *Run) buildNodes(channel mac.Channel) {
	topo := r.Scenario.Topology
	slots := topo.SlotCount()

	var proto *mac.TDMA
	for i := 0; i < topo.Nodes; i++ {
		node := r.Network.Add(func(id packet.NodeID) mac.Node {
			switch {
			case topo.Kind == TopologyCustom:
				return mac.NewTDMA(id, channel, packet.NewQueue(), r.Relay, slots, topo.Custom[id].Slot)
			case proto == nil:
				return mac.NewTDMA(id, channel, packet.NewQueue(), r.Relay, slots, 0)
			default:
				return proto.Replica(id)
			}
		}).(*mac.TDMA)
		proto = node
		r.Nodes = append(r.Nodes, node)
	}

	for i, node := range r.Nodes {
		node.SetPartners(neighbours(topo, i)...)
	}
}

// neighbours returns the transmit partners of node i.
func neighbours(topo TopologySpec, i int) []packet.NodeID {
	var out []packet.NodeID
	switch topo.Kind {
	case TopologyCustom:
		for _, p := range topo.Custom[i].Partners {
			out = append(out, packet.NodeID(p))
		}
	case TopologyRing:
		n := topo.Nodes
		prev, next := (i-1+n)%n, (i+1)%n
		if prev != i {
			out = append(out, packet.NodeID(prev))
		}
		if next != i && next != prev {
			out = append(out, packet.NodeID(next))
		}
	default: // line
		if i > 0 {
			out = append(out, packet.NodeID(i-1))
		}
		if i+1 < topo.Nodes {
			out = append(out, packet.NodeID(i+1))
		}
	}
	return out
}

func (r *Run) buildSources(rng *sim.PartitionedRNG) error {
	var result error
	for i, f := range r.Scenario.Flows {
		hops := make([]packet.NodeID, len(f.Route))
		for j, h := range f.Route {
			hops[j] = packet.NodeID(h)
		}
		route, err := packet.NewRoute(hops...)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("flow[%d]: %w", i, err))
			continue
		}
		if err := r.checkReachable(route); err != nil {
			result = multierror.Append(result, fmt.Errorf("flow[%d]: %w", i, err))
			continue
		}
		dist, err := source.NewDistribution(f.Arrival, rng.ForSubsystem(sim.SubsystemSource(i)))
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("flow[%d]: %w", i, err))
			continue
		}
		origin := r.Nodes[route.Origin()]
		ps := source.NewPacketSource(fmt.Sprintf("source_%d", i), dist, packet.NewRouted(route), origin, f.MaxPackets)
		if err := ps.Trigger(r.Scheduler, f.Start); err != nil {
			result = multierror.Append(result, fmt.Errorf("flow[%d]: %w", i, err))
			continue
		}
		r.Sources = append(r.Sources, ps)
	}
	return result
}

// checkReachable verifies every hop can hear the previous one.
func (r *Run) checkReachable(route packet.Route) error {
	hops := route.Hops()
	for i := 0; i+1 < len(hops); i++ {
		from, to := r.Nodes[hops[i]], hops[i+1]
		found := false
		for _, p := range from.Partners() {
			if p == to {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("route %v: node %d cannot hear node %d", route, to, hops[i])
		}
	}
	return nil
}

// Execute runs the simulation to completion.
func (r *Run) Execute() error {
	return r.Scheduler.Run()
}

// Report writes the per-node and delivery summary.
func (r *Run) Report(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Run ID               : %s\n", r.ID)
	fmt.Fprintf(w, "Simulated Time       : %g\n", r.Scheduler.Now())
	fmt.Fprintf(w, "Events Dispatched    : %d\n", r.Scheduler.Dispatched())
	generated := 0
	for _, s := range r.Sources {
		generated += s.Generated()
	}
	fmt.Fprintf(w, "Packets Generated    : %d\n", generated)
	rs := r.Relay.Stats()
	fmt.Fprintf(w, "Forwarded / Anomalies: %d / %d\n", rs.Forwarded, rs.Anomalies)
	if r.Lossy != nil {
		fmt.Fprintf(w, "Channel Losses       : %d\n", r.Lossy.Dropped())
	}
	fmt.Fprintln(w, "=== Node Statistics ===")
	for _, n := range r.Nodes {
		st := n.Stats()
		fmt.Fprintf(w, "node %-3d slot %d/%d  tx=%d rx=%d collisions=%d self-blocked=%d queued=%d\n",
			n.ID(), n.Slot(), n.Slots(), st.Transmitted, st.Delivered, st.Collisions, st.SelfBlocked, n.Queue().Len())
	}
	r.Collector.Summarize().Print(w)
	if r.Trace != nil {
		ts := trace.Summarize(r.Trace)
		fmt.Fprintln(w, "=== Dispatch Trace ===")
		fmt.Fprintf(w, "Recorded Events      : %d (last at t=%g)\n", ts.TotalEvents, ts.LastTime)
		for _, k := range []sim.EventKind{sim.EventArrival, sim.EventSlot} {
			fmt.Fprintf(w, "  %-19s: %d\n", k, ts.PerKind[k.String()])
		}
	}
}
