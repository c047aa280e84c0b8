// Package scenario loads a YAML description of a simulation run (topology,
// slot plan, traffic flows) and wires it into a ready-to-run simulation.
package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/macsim/macsim/sim/mac"
	"github.com/macsim/macsim/sim/packet"
	"github.com/macsim/macsim/sim/source"
)

// Topology kinds.
const (
	TopologyLine   = "line"
	TopologyRing   = "ring"
	TopologyCustom = "custom"
)

// DefaultTimeIncrement is the slot duration used when none is configured.
const DefaultTimeIncrement = 1.0

// Scenario is the top-level run configuration.
// Loaded from YAML via Load(path).
type Scenario struct {
	Seed            int64        `yaml:"seed"`
	Horizon         float64      `yaml:"horizon,omitempty"`        // 0 = run until no events remain
	TimeIncrement   float64      `yaml:"time_increment,omitempty"` // 0 = DefaultTimeIncrement
	MismatchPolicy  string       `yaml:"mismatch_policy,omitempty"`
	LossProbability float64      `yaml:"loss_probability,omitempty"`
	Topology        TopologySpec `yaml:"topology"`
	Flows           []FlowSpec   `yaml:"flows"`
}

// TopologySpec describes the TDMA nodes and who hears whom.
//
// line and ring build nodes from one prototype: node i owns slot i mod slots
// and transmits to its neighbours. custom lists every node explicitly.
type TopologySpec struct {
	Kind   string     `yaml:"kind"`
	Nodes  int        `yaml:"nodes"`
	Slots  int        `yaml:"slots,omitempty"` // 0 = one slot per node
	Custom []NodeSpec `yaml:"custom,omitempty"`
}

// NodeSpec configures one node of a custom topology.
type NodeSpec struct {
	Slot     int   `yaml:"slot"`
	Partners []int `yaml:"partners"`
}

// FlowSpec configures one packet source injecting at the route's origin.
type FlowSpec struct {
	Route      []int           `yaml:"route"`
	Arrival    source.DistSpec `yaml:"arrival"`
	MaxPackets int             `yaml:"max_packets,omitempty"` // 0 = unlimited
	Start      float64         `yaml:"start,omitempty"`
}

// Load reads and strictly parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse strictly decodes YAML scenario data. Unknown fields are errors.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

// SlotCount returns the TDMA cycle length.
func (t TopologySpec) SlotCount() int {
	if t.Slots == 0 {
		return t.Nodes
	}
	return t.Slots
}

// Increment returns the effective slot duration.
func (s *Scenario) Increment() float64 {
	if s.TimeIncrement == 0 {
		return DefaultTimeIncrement
	}
	return s.TimeIncrement
}

// Validate checks the whole scenario and reports every problem found.
func (s *Scenario) Validate() error {
	var result error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if !(s.TimeIncrement >= 0) || math.IsInf(s.TimeIncrement, 0) {
		add("time_increment must be positive and finite, got %g", s.TimeIncrement)
	}
	if !(s.Horizon >= 0) || math.IsInf(s.Horizon, 0) {
		add("horizon must be non-negative and finite, got %g", s.Horizon)
	}
	if !(s.LossProbability >= 0 && s.LossProbability <= 1) {
		add("loss_probability must be in [0, 1], got %g", s.LossProbability)
	}
	if _, err := mac.ParseMismatchPolicy(s.MismatchPolicy); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.Topology.validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if len(s.Flows) == 0 {
		add("at least one flow required")
	}
	for i, f := range s.Flows {
		if err := f.validate(s.Topology.Nodes); err != nil {
			add("flow[%d]: %v", i, err)
		}
		if f.MaxPackets == 0 && s.Horizon == 0 {
			add("flow[%d]: unlimited max_packets requires a positive horizon", i)
		}
	}
	return result
}

func (t TopologySpec) validate() error {
	var result error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}
	if t.Nodes < 1 {
		add("topology.nodes must be >= 1, got %d", t.Nodes)
	}
	if t.Slots < 0 {
		add("topology.slots must be >= 0, got %d", t.Slots)
	}
	switch t.Kind {
	case TopologyLine, TopologyRing:
		if len(t.Custom) > 0 {
			add("topology.custom is only valid with kind %q", TopologyCustom)
		}
	case TopologyCustom:
		if len(t.Custom) != t.Nodes {
			add("topology.custom lists %d nodes, want %d", len(t.Custom), t.Nodes)
		}
		for i, n := range t.Custom {
			if n.Slot < 0 || (t.SlotCount() > 0 && n.Slot >= t.SlotCount()) {
				add("topology.custom[%d]: slot %d outside [0, %d)", i, n.Slot, t.SlotCount())
			}
			for _, p := range n.Partners {
				if p < 0 || p >= t.Nodes || p == i {
					add("topology.custom[%d]: invalid partner %d", i, p)
				}
			}
		}
	default:
		add("unknown topology kind %q; valid: line, ring, custom", t.Kind)
	}
	return result
}

func (f FlowSpec) validate(nodes int) error {
	if len(f.Route) < 2 {
		return fmt.Errorf("route must name an origin and a destination, got %v", f.Route)
	}
	hops := make([]packet.NodeID, len(f.Route))
	for i, h := range f.Route {
		if h < 0 || h >= nodes {
			return fmt.Errorf("route hop %d outside [0, %d)", h, nodes)
		}
		hops[i] = packet.NodeID(h)
	}
	if _, err := packet.NewRoute(hops...); err != nil {
		return err
	}
	if err := f.Arrival.Validate(); err != nil {
		return err
	}
	if f.MaxPackets < 0 {
		return fmt.Errorf("max_packets must be >= 0, got %d", f.MaxPackets)
	}
	if !(f.Start >= 0) || math.IsInf(f.Start, 0) {
		return fmt.Errorf("start must be finite and >= 0, got %g", f.Start)
	}
	return nil
}
