package cfr

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNode_UniformFallback(t *testing.T) {
	n := newNode(4)
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, n.Strategy())
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, n.AverageStrategy())
}

func TestNode_RegretMatchingPlus(t *testing.T) {
	n := newNode(3)
	n.update([]float64{2, -1, 1}, 1.0, []float64{0.2, 0.3, 0.5}, 2.0)
	assert.Equal(t, []float64{2, 0, 1}, n.RegretSum())
	assert.Equal(t, []float64{0.4, 0.6, 1.0}, n.StrategySum())
	assert.InDeltaSlice(t, []float64{2.0 / 3, 0, 1.0 / 3}, n.Strategy(), 1e-12)

	// Negative regret is clamped, not carried over.
	n.update([]float64{-5, 1, -0.5}, 2.0, []float64{1, 0, 0}, 0)
	assert.Equal(t, []float64{0, 2, 0}, n.RegretSum())
	assert.Equal(t, []float64{0, 1, 0}, n.Strategy())
	assert.Equal(t, []float64{0.4, 0.6, 1.0}, n.StrategySum())
}

func TestNode_RandomUpdates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := newNode(5)
	regrets := make([]float64, 5)
	for i := 0; i < 10000; i++ {
		for j := range regrets {
			regrets[j] = rng.NormFloat64() * 10
		}

		n.update(regrets, rng.Float64(), n.Strategy(), rng.Float64())
		for _, r := range n.RegretSum() {
			assert.GreaterOrEqual(t, r, 0.0)
		}
	}

	for _, dist := range [][]float64{n.Strategy(), n.AverageStrategy()} {
		var total float64
		for _, p := range dist {
			assert.GreaterOrEqual(t, p, 0.0)
			total += p
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	}
}

func TestNode_Merge(t *testing.T) {
	a := newNode(2)
	a.update([]float64{1, 0}, 1, []float64{0.5, 0.5}, 1)
	b := a.clone()
	b.update([]float64{0, 3}, 1, []float64{1, 0}, 3)

	a.merge(b)
	assert.Equal(t, []float64{1, 0}, a.RegretSum())
	assert.Equal(t, []float64{4, 1}, a.StrategySum())
	assert.Equal(t, []float64{1, 3}, b.RegretSum())
}
