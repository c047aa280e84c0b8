package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// GIVEN two RNGs built from the same key
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	// WHEN drawing from the same subsystem
	for i := 0; i < 3; i++ {
		// THEN the sequences are identical
		assert.Equal(t, rng1.ForSubsystem(SubsystemChannel).Float64(), rng2.ForSubsystem(SubsystemChannel).Float64(), "value %d", i)
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// GIVEN two RNGs from the same key
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	rngB := NewPartitionedRNG(NewSimulationKey(42))

	// WHEN A draws heavily from source 0 and B draws from source 1 only
	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemSource(0)).Float64()
	}

	// THEN source 1 is unaffected by source 0's draws
	assert.Equal(t, rngB.ForSubsystem(SubsystemSource(1)).Float64(), rngA.ForSubsystem(SubsystemSource(1)).Float64())
}

func TestPartitionedRNG_DistinctSubsystemsDiffer(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	a := rng.ForSubsystem(SubsystemSource(0)).Int63()
	b := rng.ForSubsystem(SubsystemSource(1)).Int63()
	assert.NotEqual(t, a, b)
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	rng1 := rng.ForSubsystem(SubsystemChannel)
	rng2 := rng.ForSubsystem(SubsystemChannel)

	if rng1 != rng2 {
		t.Error("ForSubsystem returned different instances for same name")
	}
}

func TestPartitionedRNG_DerivedSeedFormula(t *testing.T) {
	// GIVEN a key and subsystem name
	seed := int64(7)
	rng := NewPartitionedRNG(NewSimulationKey(seed))

	// THEN the stream matches masterSeed XOR fnv1a64(name)
	want := rand.New(rand.NewSource(seed ^ fnv1a64(SubsystemChannel)))
	got := rng.ForSubsystem(SubsystemChannel)
	for i := 0; i < 5; i++ {
		assert.Equal(t, want.Float64(), got.Float64(), "value %d", i)
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	seed := int64(12345)
	rng := NewPartitionedRNG(NewSimulationKey(seed))

	if rng.Key() != SimulationKey(seed) {
		t.Errorf("Key() = %v, want %v", rng.Key(), seed)
	}
}

func TestPartitionedRNG_LazyInitialization(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	if len(rng.subsystems) != 0 {
		t.Errorf("New PartitionedRNG has %d subsystems, want 0", len(rng.subsystems))
	}

	rng.ForSubsystem(SubsystemChannel)

	if len(rng.subsystems) != 1 {
		t.Errorf("After one ForSubsystem call, have %d subsystems, want 1", len(rng.subsystems))
	}
}

func TestFnv1a64_Collision(t *testing.T) {
	// Different subsystem names should produce different hashes (spot check)
	names := []string{
		SubsystemChannel,
		SubsystemSource(0),
		SubsystemSource(1),
		SubsystemSource(100),
		"",
	}

	hashes := make(map[int64]string)
	for _, name := range names {
		h := fnv1a64(name)
		if existing, ok := hashes[h]; ok {
			t.Errorf("Hash collision: %q and %q both hash to %d", name, existing, h)
		}
		hashes[h] = name
	}
}

func TestSubsystemSource(t *testing.T) {
	tests := []struct {
		id   int
		want string
	}{
		{0, "source_0"},
		{1, "source_1"},
		{100, "source_100"},
	}

	for _, tt := range tests {
		got := SubsystemSource(tt.id)
		if got != tt.want {
			t.Errorf("SubsystemSource(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func BenchmarkPartitionedRNG_ForSubsystem_CacheHit(b *testing.B) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	rng.ForSubsystem(SubsystemChannel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rng.ForSubsystem(SubsystemChannel)
	}
}
