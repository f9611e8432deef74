package cfr

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Sampler selects a subset of the children of a node to traverse.
type Sampler interface {
	// Sample fills q with the probability that each child is included in
	// the traversal, given the distribution probs over the children:
	// the current strategy at player nodes, the outcome distribution at
	// chance nodes. Children with q = 0 are skipped. At least one entry
	// of q must be positive. traversing reports whether the node belongs
	// to the player whose regrets are being updated.
	Sample(rng *rand.Rand, traversing bool, probs []float64, q []float64)
}

// MCCFR implements Monte Carlo CFR+. Only the children selected by its
// Sampler are explored, and the values of explored children are
// importance-weighted by the inverse of their sampling probability so that
// the resulting regret and strategy updates are unbiased.
//
// With a sampler that includes every child (q = 1), MCCFR performs exactly
// the same updates as CFRPlus.
type MCCFR struct {
	table     *Table
	params    Params
	evaluator Evaluator
	sampler   Sampler
	stats     statsCounter
}

var _ Solver = &MCCFR{}

// NewMCCFR returns an MCCFR solver that accumulates into the given table.
// If evaluator is nil, StaticEvaluator is used at the depth limit.
func NewMCCFR(table *Table, params Params, evaluator Evaluator, sampler Sampler) *MCCFR {
	if evaluator == nil {
		evaluator = StaticEvaluator{}
	}

	return &MCCFR{
		table:     table,
		params:    params,
		evaluator: evaluator,
		sampler:   sampler,
	}
}

// Solve implements Solver. If rng is nil, one seeded from Params.Seed and
// iter is used.
func (c *MCCFR) Solve(rng *rand.Rand, root GameState, traverser, iter int) (float64, error) {
	if rng == nil {
		rng = iterationRand(c.params.Seed, iter)
	}

	return c.Traverse(rng, root, initialReach(root), 0, traverser, iter)
}

// Traverse runs one sampled traversal of the subtree rooted at state.
func (c *MCCFR) Traverse(rng *rand.Rand, state GameState, reach []float64, depth, traverser, iter int) (ev float64, err error) {
	if err := checkTraverser(state, traverser); err != nil {
		return 0, err
	}

	defer recoverContractViolation(&err)
	checkReach(state, reach)
	t := &mccfrTraversal{
		MCCFR:          c,
		rng:            rng,
		traverser:      traverser,
		strategyWeight: c.params.strategyWeight(iter),
		slicePool:      &floatSlicePool{},
		updates:        make(pendingUpdates),
	}

	ev = t.runHelper(state, reach, 1.0, 1.0, depth)
	t.updates.apply()
	c.stats.add(&t.stats)
	return ev, nil
}

// Stats implements Solver.
func (c *MCCFR) Stats() TraversalStats {
	return c.stats.load()
}

type mccfrTraversal struct {
	*MCCFR
	rng            *rand.Rand
	traverser      int
	strategyWeight float64
	slicePool      *floatSlicePool
	updates        pendingUpdates
	stats          TraversalStats
}

// runHelper returns an unbiased estimate of the traverser's expected
// utility in the subtree rooted at state. sampleProb is the probability
// that the sampler reached this state.
func (t *mccfrTraversal) runHelper(state GameState, reach []float64, reachChance, sampleProb float64, depth int) float64 {
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
		return t.handleChanceNode(state, reach, reachChance, sampleProb, depth)
	}

	return t.handlePlayerNode(state, reach, reachChance, sampleProb, depth)
}

func (t *mccfrTraversal) handleChanceNode(state GameState, reach []float64, reachChance, sampleProb float64, depth int) float64 {
	actions := legalActions(state)
	probs := chanceProbabilities(state, len(actions))
	qs := t.slicePool.alloc(len(actions))
	t.sampler.Sample(t.rng, false, probs, qs)

	var expectedValue float64
	for i, a := range actions {
		p, q := probs[i], qs[i]
		if p == 0 || q == 0 {
			continue
		}

		child := state.Apply(a)
		expectedValue += p * t.runHelper(child, reach, p*reachChance, q*sampleProb, depth+1) / q
	}

	t.slicePool.free(qs)
	return expectedValue
}

func (t *mccfrTraversal) handlePlayerNode(state GameState, reach []float64, reachChance, sampleProb float64, depth int) float64 {
	player := state.CurrentPlayer()
	checkReach(state, reach)
	checkPlayer(state, player, reach)
	actions := legalActions(state)
	node := t.table.getOrCreate(state.InfoSetKey(), len(actions))
	update := t.updates.get(node)
	strategy := update.strategy

	qs := t.slicePool.alloc(len(actions))
	t.sampler.Sample(t.rng, player == t.traverser, strategy, qs)

	actionUtils := t.slicePool.alloc(len(actions))
	childReach := t.slicePool.clone(reach)
	for i, a := range actions {
		q := qs[i]
		if q == 0 {
			continue
		}

		childReach[player] = strategy[i] * reach[player]
		child := state.Apply(a)
		actionUtils[i] = t.runHelper(child, childReach, reachChance, q*sampleProb, depth+1) / q
	}
	t.slicePool.free(childReach)
	t.slicePool.free(qs)

	cfValue := floats.Dot(strategy, actionUtils)
	if player == t.traverser {
		// Unsampled actions keep an estimated utility of zero; their
		// regret is still updated with respect to the estimated value.
		regrets := actionUtils
		floats.AddConst(-cfValue, regrets)
		cfReach := counterfactualReach(player, reach, reachChance)
		update.add(regrets, cfReach/sampleProb, t.strategyWeight*reach[player]/sampleProb)
	}

	t.slicePool.free(actionUtils)
	return cfValue
}

// iterationRand returns the rng used for iteration iter of a run seeded with seed.
func iterationRand(seed int64, iter int) *rand.Rand {
	return rand.New(rand.NewSource(seed*1000003 + int64(iter)))
}
