package source

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Distribution draws interarrival delays in simulated time units.
// Implementations are interchangeable; each owns its RNG stream.
type Distribution interface {
	// Sample returns a non-negative delay.
	Sample() float64
}

// Deterministic always returns the same delay.
type Deterministic struct {
	Value float64
}

func (d *Deterministic) Sample() float64 { return math.Max(0, d.Value) }

// Exponential draws exponentially-distributed delays (Poisson arrivals).
type Exponential struct {
	rate float64
	rng  *rand.Rand
}

func (d *Exponential) Sample() float64 {
	return d.rng.ExpFloat64() / d.rate
}

// Uniform draws delays uniformly from [min, max).
type Uniform struct {
	min, max float64
	rng      *rand.Rand
}

func (d *Uniform) Sample() float64 {
	return d.min + d.rng.Float64()*(d.max-d.min)
}

// Gamma draws Gamma-distributed delays. CV > 1 produces bursty arrivals.
type Gamma struct {
	shape float64 // 1/CV²
	scale float64 // mean * CV²
	rng   *rand.Rand
}

func (d *Gamma) Sample() float64 {
	return gammaRand(d.rng, d.shape, d.scale)
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// Weibull draws Weibull-distributed delays.
type Weibull struct {
	shape float64 // k
	scale float64 // λ
	rng   *rand.Rand
}

func (d *Weibull) Sample() float64 {
	// Inverse CDF: scale * (-ln(U))^(1/shape)
	u := d.rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64
	}
	return d.scale * math.Pow(-math.Log(u), 1.0/d.shape)
}

// weibullShapeFromCV finds Weibull shape k such that
// CV² = Γ(1+2/k)/Γ(1+1/k)² - 1, using bisection over k ∈ [0.1, 100].
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		// CV is monotonically decreasing in k
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("weibullShapeFromCV: bisection did not converge for CV=%.3f after 100 iterations; using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}

// DistSpec configures an interarrival process.
type DistSpec struct {
	Process string  `yaml:"process"`
	Rate    float64 `yaml:"rate,omitempty"`  // exponential, gamma, weibull: arrivals per time unit
	Value   float64 `yaml:"value,omitempty"` // deterministic
	Min     float64 `yaml:"min,omitempty"`   // uniform
	Max     float64 `yaml:"max,omitempty"`   // uniform
	CV      float64 `yaml:"cv,omitempty"`    // gamma, weibull; default 1
}

// Validate checks the parameters required by the configured process. Every
// process must be able to draw a positive delay, otherwise a source without a
// cap would re-arm at the same instant forever.
func (s DistSpec) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{{"rate", s.Rate}, {"value", s.Value}, {"min", s.Min}, {"max", s.Max}, {"cv", s.CV}}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s %s must be finite, got %g", s.Process, f.name, f.v)
		}
	}
	switch s.Process {
	case "deterministic":
		if !(s.Value > 0) {
			return fmt.Errorf("deterministic value must be positive, got %g", s.Value)
		}
	case "exponential", "gamma", "weibull":
		if !(s.Rate > 0) {
			return fmt.Errorf("%s rate must be positive, got %g", s.Process, s.Rate)
		}
		if s.CV < 0 {
			return fmt.Errorf("%s cv must be non-negative, got %g", s.Process, s.CV)
		}
	case "uniform":
		if s.Min < 0 || s.Max < s.Min || !(s.Max > 0) {
			return fmt.Errorf("uniform bounds must satisfy 0 <= min <= max, max > 0, got [%g, %g]", s.Min, s.Max)
		}
	default:
		return fmt.Errorf("unknown arrival process %q; valid: deterministic, exponential, uniform, gamma, weibull", s.Process)
	}
	return nil
}

// NewDistribution creates a Distribution from a validated spec.
func NewDistribution(spec DistSpec, rng *rand.Rand) (Distribution, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cv := spec.CV
	if cv == 0 {
		cv = 1.0
	}
	mean := 1.0 / spec.Rate
	switch spec.Process {
	case "deterministic":
		return &Deterministic{Value: spec.Value}, nil
	case "exponential":
		return &Exponential{rate: spec.Rate, rng: rng}, nil
	case "uniform":
		return &Uniform{min: spec.Min, max: spec.Max, rng: rng}, nil
	case "gamma":
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to exponential", shape, cv)
			return &Exponential{rate: spec.Rate, rng: rng}, nil
		}
		return &Gamma{shape: shape, scale: mean * cv * cv, rng: rng}, nil
	default: // weibull
		k := weibullShapeFromCV(cv)
		return &Weibull{shape: k, scale: mean / math.Gamma(1.0+1.0/k), rng: rng}, nil
	}
}
