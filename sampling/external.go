package sampling

import "math/rand"

// ExternalSampler explores every action of the traversing player, and
// samples a single action of other players and chance according to their
// current strategy.
type ExternalSampler struct{}

func NewExternalSampler() *ExternalSampler {
	return &ExternalSampler{}
}

// Sample implements cfr.Sampler.
func (es *ExternalSampler) Sample(rng *rand.Rand, traversing bool, probs []float64, q []float64) {
	if traversing {
		fill(q, 1.0)
		return
	}

	fill(q, 0)
	selected := SampleOne(probs, rng.Float64())
	q[selected] = probs[selected]
}
