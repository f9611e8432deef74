package sampling

import "math/rand"

// OutcomeSampler samples one child at every node. The traversing player
// explores with an epsilon-on-policy distribution so that every action keeps
// a non-zero probability of being visited.
type OutcomeSampler struct {
	eps float64
}

func NewOutcomeSampler(explorationEps float64) *OutcomeSampler {
	return &OutcomeSampler{eps: explorationEps}
}

// Sample implements cfr.Sampler.
func (os *OutcomeSampler) Sample(rng *rand.Rand, traversing bool, probs []float64, q []float64) {
	if !traversing {
		fill(q, 0)
		selected := SampleOne(probs, rng.Float64())
		q[selected] = probs[selected]
		return
	}

	// q temporarily holds the exploration distribution.
	n := float64(len(q))
	for i, p := range probs {
		q[i] = os.eps/n + (1-os.eps)*p
	}

	selected := SampleOne(q, rng.Float64())
	p := q[selected]
	fill(q, 0)
	q[selected] = p
}
