package cfr

import (
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Node accumulates regrets and strategy weights for one information set.
// All methods are safe for concurrent use.
type Node struct {
	mu sync.Mutex

	// Accumulated CFR+ regret for each action. Never negative.
	regretSum []float64
	// Accumulated (reach-weighted) strategy for each action.
	strategySum []float64
}

func newNode(nActions int) *Node {
	return &Node{
		regretSum:   make([]float64, nActions),
		strategySum: make([]float64, nActions),
	}
}

// NumActions returns the number of actions available at this information set.
func (n *Node) NumActions() int {
	return len(n.regretSum)
}

// RegretSum returns a copy of the accumulated regrets.
func (n *Node) RegretSum() []float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]float64(nil), n.regretSum...)
}

// StrategySum returns a copy of the accumulated strategy weights.
func (n *Node) StrategySum() []float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]float64(nil), n.strategySum...)
}

// Strategy returns the current regret-matching strategy.
func (n *Node) Strategy() []float64 {
	strat := make([]float64, n.NumActions())
	n.mu.Lock()
	copy(strat, n.regretSum)
	n.mu.Unlock()
	normalize(strat)
	return strat
}

// AverageStrategy returns the average strategy over all iterations.
// This is the strategy that converges to an equilibrium.
func (n *Node) AverageStrategy() []float64 {
	avgStrat := make([]float64, n.NumActions())
	n.mu.Lock()
	copy(avgStrat, n.strategySum)
	n.mu.Unlock()
	normalize(avgStrat)
	return avgStrat
}

// update atomically applies one CFR+ update:
//
//	regretSum[i] = max(0, regretSum[i] + regretWeight*regrets[i])
//	strategySum[i] += strategyWeight*strategy[i]
func (n *Node) update(regrets []float64, regretWeight float64, strategy []float64, strategyWeight float64) {
	n.mu.Lock()
	for i, r := range regrets {
		x := n.regretSum[i] + regretWeight*r
		if x < 0 {
			x = 0 // CFR+
		}
		n.regretSum[i] = x
	}

	if strategyWeight != 0 {
		floats.AddScaled(n.strategySum, strategyWeight, strategy)
	}
	n.mu.Unlock()
}

// merge adds other's strategy sums into n.
func (n *Node) merge(other *Node) {
	strategySum := other.StrategySum()
	n.mu.Lock()
	floats.Add(n.strategySum, strategySum)
	n.mu.Unlock()
}

func (n *Node) clone() *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return &Node{
		regretSum:   append([]float64(nil), n.regretSum...),
		strategySum: append([]float64(nil), n.strategySum...),
	}
}

// normalize scales v in place into a probability distribution, falling back
// to the uniform distribution if v has no positive mass.
func normalize(v []float64) {
	makePositive(v)
	total := floats.Sum(v)
	if total > 0 {
		floats.Scale(1.0/total, v)
		return
	}

	for i := range v {
		v[i] = 1.0 / float64(len(v))
	}
}

func uniformDist(n int) []float64 {
	result := make([]float64, n)
	floats.AddConst(1.0/float64(n), result)
	return result
}

func makePositive(v []float64) {
	for i := range v {
		if v[i] < 0 {
			v[i] = 0.0
		}
	}
}
