package sampling

import (
	"math"
	"math/rand"
)

// UniformSampler selects ceil(n*rate) of the n children of each node
// uniformly at random. With rate 1 every child is explored and the
// traversal is equivalent to a full one.
type UniformSampler struct {
	rate float64
}

// NewUniformSampler returns a UniformSampler exploring the given fraction of
// children, which must be in (0, 1].
func NewUniformSampler(rate float64) *UniformSampler {
	return &UniformSampler{rate: rate}
}

// Sample implements cfr.Sampler.
func (us *UniformSampler) Sample(rng *rand.Rand, traversing bool, probs []float64, q []float64) {
	n := len(q)
	k := us.numSamples(n)
	if k >= n {
		fill(q, 1.0)
		return
	}

	p := float64(k) / float64(n)
	for i := 0; i < k; i++ {
		q[i] = p
	}

	for i := k; i < n; i++ {
		q[i] = 0
	}

	rng.Shuffle(n, func(i, j int) {
		q[i], q[j] = q[j], q[i]
	})
}

func (us *UniformSampler) numSamples(n int) int {
	k := int(math.Ceil(float64(n) * us.rate))
	if k < 1 {
		k = 1
	}

	return k
}
