// Package metrics collects packets that reached their destination and
// summarizes their end-to-end delays for final reporting.
package metrics

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/macsim/macsim/sim/packet"
)

// Collector is a mac.Sink that keeps every completed packet.
type Collector struct {
	completed []*packet.Routed
	seen      map[*packet.Routed]bool
	perDest   map[packet.NodeID]int
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		seen:    make(map[*packet.Routed]bool),
		perDest: make(map[packet.NodeID]int),
	}
}

// Record implements mac.Sink. Each packet may be recorded once; a second
// record of the same packet panics.
func (c *Collector) Record(p *packet.Routed) {
	if c.seen[p] {
		panic(fmt.Sprintf("Collector.Record: %v recorded twice", p))
	}
	c.seen[p] = true
	c.completed = append(c.completed, p)
	c.perDest[p.Route.Destination()]++
}

// Completed returns the recorded packets in completion order.
// Callers MUST NOT modify the slice.
func (c *Collector) Completed() []*packet.Routed { return c.completed }

// Summary aggregates end-to-end delays.
type Summary struct {
	Delivered   int
	MeanDelay   float64
	StdDevDelay float64
	P50Delay    float64
	P95Delay    float64
	MaxDelay    float64
	PerDest     map[packet.NodeID]int
}

// Summarize computes delay statistics. Safe on an empty collector.
func (c *Collector) Summarize() Summary {
	s := Summary{Delivered: len(c.completed), PerDest: make(map[packet.NodeID]int, len(c.perDest))}
	for k, v := range c.perDest {
		s.PerDest[k] = v
	}
	if len(c.completed) == 0 {
		return s
	}
	delays := make([]float64, len(c.completed))
	for i, p := range c.completed {
		delays[i] = p.Delay()
	}
	sort.Float64s(delays)
	s.MeanDelay = stat.Mean(delays, nil)
	if len(delays) > 1 {
		s.StdDevDelay = stat.StdDev(delays, nil)
	}
	s.P50Delay = stat.Quantile(0.5, stat.Empirical, delays, nil)
	s.P95Delay = stat.Quantile(0.95, stat.Empirical, delays, nil)
	s.MaxDelay = delays[len(delays)-1]
	return s
}

// Print writes the summary in the CLI report format.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Delivery Metrics ===")
	fmt.Fprintf(w, "Delivered Packets    : %d\n", s.Delivered)
	if s.Delivered > 0 {
		fmt.Fprintf(w, "Mean Delay           : %.4f\n", s.MeanDelay)
		fmt.Fprintf(w, "Delay StdDev         : %.4f\n", s.StdDevDelay)
		fmt.Fprintf(w, "P50 Delay            : %.4f\n", s.P50Delay)
		fmt.Fprintf(w, "P95 Delay            : %.4f\n", s.P95Delay)
		fmt.Fprintf(w, "Max Delay            : %.4f\n", s.MaxDelay)
	}
	dests := make([]int, 0, len(s.PerDest))
	for d := range s.PerDest {
		dests = append(dests, int(d))
	}
	sort.Ints(dests)
	for _, d := range dests {
		fmt.Fprintf(w, "  to node %-3d        : %d\n", d, s.PerDest[packet.NodeID(d)])
	}
}
