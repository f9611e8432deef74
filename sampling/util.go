// Package sampling implements strategies for choosing which children of a
// game tree node to explore during a Monte Carlo CFR traversal.
//
// A sampler fills a vector q with the probability that each child was
// selected; children with q[i] == 0 are not traversed, and the values of the
// others are importance-weighted by 1/q[i].
package sampling

import (
	"fmt"
)

const tol = 1e-3

// SampleOne returns the first element i of pv where sum(pv[:i]) > x.
func SampleOne(pv []float64, x float64) int {
	var cumProb float64
	for i, p := range pv {
		cumProb += p
		if cumProb > x {
			return i
		}
	}

	if cumProb < 1.0-tol { // Leave room for floating point error.
		panic(fmt.Errorf("probability distribution does not sum to 1! x=%v, pv=%v", x, pv))
	}

	// Skip trailing zero-probability entries.
	for i := len(pv) - 1; i > 0; i-- {
		if pv[i] > 0 {
			return i
		}
	}

	return 0
}

func fill(q []float64, x float64) {
	for i := range q {
		q[i] = x
	}
}
