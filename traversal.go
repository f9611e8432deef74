package cfr

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"
)

const eps = 1e-6

// Solver performs one CFR traversal of a game tree on behalf of a single
// player, updating that player's nodes in its Table.
type Solver interface {
	// Solve traverses the tree rooted at root at iteration iter and returns
	// the traversing player's expected value. rng is used by solvers that
	// sample; it must not be shared with concurrent calls.
	Solve(rng *rand.Rand, root GameState, traverser, iter int) (float64, error)
	// Stats returns counters accumulated over all calls to Solve.
	Stats() TraversalStats
}

// Evaluator estimates the value of a state at which traversal is cut off
// because it exceeds the maximum depth.
type Evaluator interface {
	Evaluate(state GameState, player int) float64
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(state GameState, player int) float64

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(state GameState, player int) float64 {
	return f(state, player)
}

// StaticEvaluator uses the state's own estimate if it implements Estimator,
// and otherwise treats the cut off subtree as worth zero to every player.
type StaticEvaluator struct{}

// Evaluate implements Evaluator.
func (StaticEvaluator) Evaluate(state GameState, player int) float64 {
	if e, ok := state.(Estimator); ok {
		return e.EstimateUtility(player)
	}

	return 0
}

// TraversalStats are counters accumulated by a Solver.
type TraversalStats struct {
	NodesVisited  int64
	TerminalNodes int64
	DepthCutoffs  int64
	MaxDepth      int // Deepest state visited.
}

type statsCounter struct {
	nodesVisited  atomic.Int64
	terminalNodes atomic.Int64
	depthCutoffs  atomic.Int64
	maxDepth      atomic.Int64
}

func (c *statsCounter) add(s *TraversalStats) {
	c.nodesVisited.Add(s.NodesVisited)
	c.terminalNodes.Add(s.TerminalNodes)
	c.depthCutoffs.Add(s.DepthCutoffs)
	for {
		cur := c.maxDepth.Load()
		if int64(s.MaxDepth) <= cur || c.maxDepth.CompareAndSwap(cur, int64(s.MaxDepth)) {
			break
		}
	}
}

func (c *statsCounter) load() TraversalStats {
	return TraversalStats{
		NodesVisited:  c.nodesVisited.Load(),
		TerminalNodes: c.terminalNodes.Load(),
		DepthCutoffs:  c.depthCutoffs.Load(),
		MaxDepth:      int(c.maxDepth.Load()),
	}
}

func (s *TraversalStats) visit(depth int) {
	s.NodesVisited++
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}
}

func checkTraverser(root GameState, traverser int) error {
	if n := root.NumPlayers(); traverser < 0 || traverser >= n {
		return &ContractViolation{
			State: root,
			Msg:   fmt.Sprintf("traversing player %d out of range for %d-player game", traverser, n),
		}
	}

	return nil
}

// initialReach returns the reach probabilities of every player at the root.
func initialReach(root GameState) []float64 {
	reach := make([]float64, root.NumPlayers())
	for i := range reach {
		reach[i] = 1.0
	}

	return reach
}

func checkReach(state GameState, reach []float64) {
	if len(reach) != state.NumPlayers() {
		panic(&ContractViolation{
			State: state,
			Msg:   fmt.Sprintf("state has %d players but %d reach probabilities were given", state.NumPlayers(), len(reach)),
		})
	}
}

func legalActions(state GameState) []Action {
	actions := state.LegalActions()
	if len(actions) == 0 {
		panic(&ContractViolation{
			State: state,
			Msg:   "non-terminal state has no legal actions",
		})
	}

	return actions
}

func checkPlayer(state GameState, player int, reach []float64) {
	if player < 0 || player >= len(reach) {
		panic(&ContractViolation{
			State: state,
			Msg:   fmt.Sprintf("acting player %d out of range for %d-player game", player, len(reach)),
		})
	}
}

// chanceProbabilities returns the distribution over the n outcomes of a
// chance node.
func chanceProbabilities(state GameState, n int) []float64 {
	cs, ok := state.(ChanceState)
	if !ok {
		return uniformDist(n)
	}

	probs := cs.ChanceProbabilities()
	if len(probs) != n {
		panic(&ContractViolation{
			State: state,
			Msg:   fmt.Sprintf("chance node has %d outcomes but %d probabilities", n, len(probs)),
		})
	}

	var total float64
	for _, p := range probs {
		if p < 0 || math.IsNaN(p) {
			panic(&ContractViolation{State: state, Msg: fmt.Sprintf("invalid chance probabilities: %v", probs)})
		}
		total += p
	}

	if math.Abs(total-1.0) > eps*float64(n) {
		panic(&ContractViolation{
			State: state,
			Msg:   fmt.Sprintf("chance probabilities sum to %v != 1", total),
		})
	}

	return probs
}

// counterfactualReach is the probability of reaching a node assuming that
// the given player tried to reach it: the product of every other player's
// reach and chance.
func counterfactualReach(player int, reach []float64, reachChance float64) float64 {
	result := reachChance
	for i, p := range reach {
		if i != player {
			result *= p
		}
	}

	return result
}

// pendingUpdate accumulates the updates of one node during a traversal.
// The node's strategy is read once, on first visit, so that every visit in
// the traversal plays the same strategy.
type pendingUpdate struct {
	strategy        []float64
	regrets         []float64 // Weighted instantaneous regrets.
	strategyWeights []float64
	updated         bool
}

// pendingUpdates holds the updates of a single traversal. They are applied
// to the table, one atomic update per node, when the traversal finishes.
type pendingUpdates map[*Node]*pendingUpdate

func (p pendingUpdates) get(node *Node) *pendingUpdate {
	u, ok := p[node]
	if !ok {
		n := node.NumActions()
		u = &pendingUpdate{
			strategy:        node.Strategy(),
			regrets:         make([]float64, n),
			strategyWeights: make([]float64, n),
		}
		p[node] = u
	}

	return u
}

func (u *pendingUpdate) add(regrets []float64, regretWeight, strategyWeight float64) {
	floats.AddScaled(u.regrets, regretWeight, regrets)
	floats.AddScaled(u.strategyWeights, strategyWeight, u.strategy)
	u.updated = true
}

func (p pendingUpdates) apply() {
	for node, u := range p {
		if u.updated {
			node.update(u.regrets, 1.0, u.strategyWeights, 1.0)
		}
	}
}
