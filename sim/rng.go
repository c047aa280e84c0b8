package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a run. Every random stream of the run
// (one per packet source, one for the channel) is derived from it.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// SubsystemChannel names the stream that decides per-reception losses.
const SubsystemChannel = "channel"

// SubsystemSource returns the subsystem name for packet source N.
// Each source draws interarrival times from its own stream, so adding a
// flow does not perturb the arrivals of the others.
func SubsystemSource(id int) string {
	return fmt.Sprintf("source_%d", id)
}

// PartitionedRNG hands out one *rand.Rand per named stream, seeded with
// key XOR fnv1a64(name). Interarrival draws of a source and loss draws of the
// channel never consume each other's numbers, so turning loss on leaves the
// arrival times of every flow unchanged.
//
// Not safe for concurrent use; the scheduler is single-threaded.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, creating it on first use.
// Repeated calls return the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
