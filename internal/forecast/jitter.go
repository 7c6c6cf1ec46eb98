package forecast

import "math/rand/v2"

// Jitter supplies multiplicative noise around 1. It is a cosmetic smoothing
// step that makes projections look less mechanical; it carries no statistical
// meaning.
type Jitter interface {
	// Factor returns a value in [1-spread, 1+spread].
	Factor(spread float64) float64
}

// NoJitter always returns 1.
type NoJitter struct{}

func (NoJitter) Factor(float64) float64 { return 1 }

// SeededJitter draws factors from a deterministic PCG stream. It is not safe
// for concurrent use; build one per forecast.
type SeededJitter struct {
	r *rand.Rand
}

// NewSeededJitter returns a jitter source whose sequence depends only on seed.
func NewSeededJitter(seed uint64) *SeededJitter {
	return &SeededJitter{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (j *SeededJitter) Factor(spread float64) float64 {
	return 1 - spread + j.r.Float64()*2*spread
}
