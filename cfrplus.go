package cfr

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// CFRPlus implements full-traversal CFR with regret matching+: every action
// of every node is explored, and accumulated regrets are clamped at zero
// after each update.
//
// Each traversal plays the strategy every node had when the traversal first
// reached it. Updates are collected during the traversal and applied once
// per node when it finishes.
type CFRPlus struct {
	table     *Table
	params    Params
	evaluator Evaluator
	stats     statsCounter
}

var _ Solver = &CFRPlus{}

// NewCFRPlus returns a CFRPlus solver that accumulates into the given table.
// If evaluator is nil, StaticEvaluator is used at the depth limit.
func NewCFRPlus(table *Table, params Params, evaluator Evaluator) *CFRPlus {
	if evaluator == nil {
		evaluator = StaticEvaluator{}
	}

	return &CFRPlus{
		table:     table,
		params:    params,
		evaluator: evaluator,
	}
}

// Solve implements Solver. The rng is unused.
func (c *CFRPlus) Solve(rng *rand.Rand, root GameState, traverser, iter int) (float64, error) {
	return c.Traverse(root, initialReach(root), 0, traverser, iter)
}

// Traverse runs CFR+ on the subtree rooted at state, given each player's
// probability of reaching it and its depth below the root of the game.
func (c *CFRPlus) Traverse(state GameState, reach []float64, depth, traverser, iter int) (ev float64, err error) {
	if err := checkTraverser(state, traverser); err != nil {
		return 0, err
	}

	defer recoverContractViolation(&err)
	checkReach(state, reach)
	t := &cfrPlusTraversal{
		CFRPlus:        c,
		traverser:      traverser,
		strategyWeight: c.params.strategyWeight(iter),
		slicePool:      &floatSlicePool{},
		updates:        make(pendingUpdates),
	}

	ev = t.runHelper(state, reach, 1.0, depth)
	t.updates.apply()
	c.stats.add(&t.stats)
	return ev, nil
}

// Stats implements Solver.
func (c *CFRPlus) Stats() TraversalStats {
	return c.stats.load()
}

// cfrPlusTraversal holds the state of a single call to Traverse.
type cfrPlusTraversal struct {
	*CFRPlus
	traverser      int
	strategyWeight float64
	slicePool      *floatSlicePool
	updates        pendingUpdates
	stats          TraversalStats
}

func (t *cfrPlusTraversal) runHelper(state GameState, reach []float64, reachChance float64, depth int) float64 {
	t.stats.visit(depth)
	if state.IsTerminal() {
		t.stats.TerminalNodes++
		return state.Utility(t.traverser)
	}

	if depth > t.params.MaxDepth {
		t.stats.DepthCutoffs++
		return t.evaluator.Evaluate(state, t.traverser)
	}

	if state.CurrentPlayer() == ChancePlayer {
		return t.handleChanceNode(state, reach, reachChance, depth)
	}

	return t.handlePlayerNode(state, reach, reachChance, depth)
}

func (t *cfrPlusTraversal) handleChanceNode(state GameState, reach []float64, reachChance float64, depth int) float64 {
	actions := legalActions(state)
	probs := chanceProbabilities(state, len(actions))

	var expectedValue float64
	for i, a := range actions {
		p := probs[i]
		if p == 0 {
			continue
		}

		child := state.Apply(a)
		expectedValue += p * t.runHelper(child, reach, p*reachChance, depth+1)
	}

	return expectedValue
}

func (t *cfrPlusTraversal) handlePlayerNode(state GameState, reach []float64, reachChance float64, depth int) float64 {
	player := state.CurrentPlayer()
	checkReach(state, reach)
	checkPlayer(state, player, reach)
	actions := legalActions(state)
	node := t.table.getOrCreate(state.InfoSetKey(), len(actions))
	update := t.updates.get(node)
	strategy := update.strategy

	actionUtils := t.slicePool.alloc(len(actions))
	childReach := t.slicePool.clone(reach)
	for i, a := range actions {
		childReach[player] = strategy[i] * reach[player]
		child := state.Apply(a)
		actionUtils[i] = t.runHelper(child, childReach, reachChance, depth+1)
	}
	t.slicePool.free(childReach)

	cfValue := floats.Dot(strategy, actionUtils)
	if player == t.traverser {
		regrets := actionUtils
		floats.AddConst(-cfValue, regrets)
		cfReach := counterfactualReach(player, reach, reachChance)
		update.add(regrets, cfReach, t.strategyWeight*reach[player])
	}

	t.slicePool.free(actionUtils)
	return cfValue
}
