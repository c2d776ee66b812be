package world

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/critters/config"
)

// FertilityField biases where food appears. Values are in [Floor, 1].
type FertilityField struct {
	noise    opensimplex.Noise
	scale    float64
	contrast float64
	floor    float64
}

// NewFertilityField creates a field seeded independently of the simulation RNG.
func NewFertilityField(seed int64, cfg config.FertilityConfig) *FertilityField {
	scale := cfg.Scale
	if scale <= 0 {
		scale = 0.05
	}
	contrast := cfg.Contrast
	if contrast <= 0 {
		contrast = 1
	}
	return &FertilityField{
		noise:    opensimplex.NewNormalized(seed),
		scale:    scale,
		contrast: contrast,
		floor:    math.Max(0, math.Min(1, cfg.Floor)),
	}
}

// At returns the fertility at a ground position.
func (f *FertilityField) At(x, z float64) float64 {
	v := f.noise.Eval2(x*f.scale, z*f.scale)
	v = math.Pow(math.Max(0, math.Min(1, v)), f.contrast)
	return f.floor + (1-f.floor)*v
}

// SamplePoint picks a ground point in b by rejection sampling against the
// field. After attempts misses it returns the last candidate.
func (f *FertilityField) SamplePoint(rng *rand.Rand, b Bounds3D, attempts int) Vec3 {
	if attempts < 1 {
		attempts = 1
	}
	var p Vec3
	for i := 0; i < attempts; i++ {
		p = b.SampleGround(rng)
		if rng.Float64() < f.At(p.X, p.Z) {
			return p
		}
	}
	return p
}
