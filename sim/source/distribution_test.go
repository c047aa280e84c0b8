package source

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMean(d Distribution, n int) float64 {
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += d.Sample()
	}
	return sum / float64(n)
}

func TestNewDistribution_MeansMatchRate(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
		want float64
	}{
		{"exponential", DistSpec{Process: "exponential", Rate: 0.5}, 2.0},
		{"gamma bursty", DistSpec{Process: "gamma", Rate: 0.5, CV: 2}, 2.0},
		{"weibull", DistSpec{Process: "weibull", Rate: 0.5, CV: 1.5}, 2.0},
		{"uniform", DistSpec{Process: "uniform", Min: 1, Max: 3}, 2.0},
		{"deterministic", DistSpec{Process: "deterministic", Value: 2}, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDistribution(tt.spec, rand.New(rand.NewSource(42)))
			require.NoError(t, err)
			got := sampleMean(d, 50000)
			assert.InDelta(t, tt.want, got, 0.1*tt.want, "mean of %s", tt.name)
		})
	}
}

func TestNewDistribution_SamplesNonNegative(t *testing.T) {
	for _, spec := range []DistSpec{
		{Process: "exponential", Rate: 3},
		{Process: "gamma", Rate: 3, CV: 0.5},
		{Process: "weibull", Rate: 3},
		{Process: "uniform", Min: 0, Max: 0.1},
	} {
		d, err := NewDistribution(spec, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		for i := 0; i < 1000; i++ {
			v := d.Sample()
			assert.False(t, v < 0 || math.IsNaN(v), "%s produced %v", spec.Process, v)
		}
	}
}

func TestNewDistribution_SameSeedSameSequence(t *testing.T) {
	spec := DistSpec{Process: "gamma", Rate: 1, CV: 3}
	a, _ := NewDistribution(spec, rand.New(rand.NewSource(9)))
	b, _ := NewDistribution(spec, rand.New(rand.NewSource(9)))
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Sample(), b.Sample())
	}
}

func TestDistSpec_Validate(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
	}{
		{"unknown process", DistSpec{Process: "zipf"}},
		{"zero rate", DistSpec{Process: "exponential"}},
		{"infinite rate", DistSpec{Process: "gamma", Rate: math.Inf(1)}},
		{"negative cv", DistSpec{Process: "weibull", Rate: 1, CV: -1}},
		{"inverted uniform", DistSpec{Process: "uniform", Min: 2, Max: 1}},
		{"negative deterministic", DistSpec{Process: "deterministic", Value: -1}},
		{"zero deterministic", DistSpec{Process: "deterministic", Value: 0}},
		{"infinite deterministic", DistSpec{Process: "deterministic", Value: math.Inf(1)}},
		{"nan deterministic", DistSpec{Process: "deterministic", Value: math.NaN()}},
		{"zero-width uniform at zero", DistSpec{Process: "uniform", Min: 0, Max: 0}},
		{"infinite uniform max", DistSpec{Process: "uniform", Min: 1, Max: math.Inf(1)}},
		{"nan uniform min", DistSpec{Process: "uniform", Min: math.NaN(), Max: 1}},
		{"nan rate", DistSpec{Process: "exponential", Rate: math.NaN()}},
		{"infinite cv", DistSpec{Process: "weibull", Rate: 1, CV: math.Inf(1)}},
		{"nan unused field", DistSpec{Process: "exponential", Rate: 1, Value: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.spec.Validate())
			_, err := NewDistribution(tt.spec, rand.New(rand.NewSource(1)))
			assert.Error(t, err)
		})
	}
}

func TestDistSpec_Validate_AcceptsPositiveDelays(t *testing.T) {
	for _, spec := range []DistSpec{
		{Process: "deterministic", Value: 0.5},
		{Process: "uniform", Min: 0, Max: 0.1},
		{Process: "uniform", Min: 2, Max: 2},
		{Process: "exponential", Rate: 1},
	} {
		assert.NoError(t, spec.Validate(), "%+v", spec)
	}
}

func TestNewDistribution_TinyGammaShapeFallsBackToExponential(t *testing.T) {
	d, err := NewDistribution(DistSpec{Process: "gamma", Rate: 1, CV: 20}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	_, ok := d.(*Exponential)
	assert.True(t, ok)
}

func TestWeibullShapeFromCV_UnitCVIsExponential(t *testing.T) {
	assert.InDelta(t, 1.0, weibullShapeFromCV(1.0), 0.01)
}
