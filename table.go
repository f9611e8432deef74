package cfr

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/dchest/siphash"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

const (
	tableShardCount = 64
	tableShardMask  = tableShardCount - 1

	// Fixed siphash keys: shard assignment only needs to be stable
	// within a process.
	shardKey0 = 0x736f6d6570736575
	shardKey1 = 0x646f72616e646f6d
)

type tableShard struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// Table maps information set keys to their Node. It is safe for concurrent
// use: nodes are spread across shards with independent locks, and a node is
// created exactly once even if several goroutines touch a new key at once.
type Table struct {
	shards  [tableShardCount]tableShard
	created atomic.Int64
}

// NewTable returns an empty Table.
func NewTable() *Table {
	t := &Table{}
	for i := range t.shards {
		t.shards[i].nodes = make(map[string]*Node)
	}

	return t
}

// Get returns the Node for the given information set, if it has been visited.
func (t *Table) Get(key string) (*Node, bool) {
	shard := t.shardFor(key)
	shard.mu.RLock()
	node, ok := shard.nodes[key]
	shard.mu.RUnlock()
	return node, ok
}

// AverageStrategy returns the average strategy for the given information set,
// or false if it has not been visited.
func (t *Table) AverageStrategy(key string) ([]float64, bool) {
	node, ok := t.Get(key)
	if !ok {
		return nil, false
	}

	return node.AverageStrategy(), true
}

// getOrCreate returns the Node for key, creating it with nActions actions if
// it does not exist yet. It panics with a ContractViolation if an existing
// node has a different number of actions.
func (t *Table) getOrCreate(key string, nActions int) *Node {
	shard := t.shardFor(key)

	shard.mu.RLock()
	node, ok := shard.nodes[key]
	shard.mu.RUnlock()
	if !ok {
		shard.mu.Lock()
		if node, ok = shard.nodes[key]; !ok {
			node = newNode(nActions)
			shard.nodes[key] = node
			if n := t.created.Add(1); n%100000 == 0 {
				glog.V(2).Infof("%d information sets created", n)
			}
		}
		shard.mu.Unlock()
	}

	if node.NumActions() != nActions {
		panic(&ContractViolation{
			Key: key,
			Msg: fmt.Sprintf("node has n_actions=%d but state has %d legal actions", node.NumActions(), nActions),
		})
	}

	return node
}

// Len returns the number of information sets in the table.
func (t *Table) Len() int {
	total := 0
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.RLock()
		total += len(shard.nodes)
		shard.mu.RUnlock()
	}

	return total
}

// Range calls fn for each node in the table until fn returns false.
// Nodes added concurrently may or may not be visited.
func (t *Table) Range(fn func(key string, node *Node) bool) {
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.RLock()
		keys := make([]string, 0, len(shard.nodes))
		nodes := make([]*Node, 0, len(shard.nodes))
		for k, n := range shard.nodes {
			keys = append(keys, k)
			nodes = append(nodes, n)
		}
		shard.mu.RUnlock()

		for j, k := range keys {
			if !fn(k, nodes[j]) {
				return
			}
		}
	}
}

// Clear removes all nodes from the table.
func (t *Table) Clear() {
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.Lock()
		shard.nodes = make(map[string]*Node)
		shard.mu.Unlock()
	}
}

// Restore inserts (or replaces) the node for key with the given accumulators.
// It is used when loading a checkpoint.
func (t *Table) Restore(key string, regretSum, strategySum []float64) error {
	node, err := RestoreNode(key, regretSum, strategySum)
	if err != nil {
		return err
	}

	shard := t.shardFor(key)
	shard.mu.Lock()
	shard.nodes[key] = node
	shard.mu.Unlock()
	return nil
}

// RestoreNode returns a standalone Node with the given accumulators, or an
// error wrapping ErrCorruptTable if they are not valid. The key is only used
// in error messages.
func RestoreNode(key string, regretSum, strategySum []float64) (*Node, error) {
	if len(regretSum) != len(strategySum) {
		return nil, errors.Wrapf(ErrCorruptTable, "node %q has %d regrets but %d strategy weights",
			key, len(regretSum), len(strategySum))
	}

	if len(regretSum) == 0 {
		return nil, errors.Wrapf(ErrCorruptTable, "node %q has no actions", key)
	}

	for i, r := range regretSum {
		if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, errors.Wrapf(ErrCorruptTable, "node %q has invalid regret[%d]=%v", key, i, r)
		}
	}

	for i, s := range strategySum {
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, errors.Wrapf(ErrCorruptTable, "node %q has invalid strategy weight[%d]=%v", key, i, s)
		}
	}

	return &Node{
		regretSum:   append([]float64(nil), regretSum...),
		strategySum: append([]float64(nil), strategySum...),
	}, nil
}

// Merge folds the strategy sums of other into t. Information sets only
// present in other are copied. Regrets of existing nodes are left untouched
// so that further training continues from t's own regrets.
func (t *Table) Merge(other *Table) error {
	var err error
	other.Range(func(key string, node *Node) bool {
		shard := t.shardFor(key)
		shard.mu.Lock()
		existing, ok := shard.nodes[key]
		if !ok {
			shard.nodes[key] = node.clone()
		}
		shard.mu.Unlock()

		if ok {
			if existing.NumActions() != node.NumActions() {
				err = errors.Errorf("cannot merge node %q: n_actions=%d vs %d",
					key, existing.NumActions(), node.NumActions())
				return false
			}

			existing.merge(node)
		}

		return true
	})

	return err
}

func (t *Table) shardFor(key string) *tableShard {
	h := siphash.Hash(shardKey0, shardKey1, []byte(key))
	return &t.shards[h&tableShardMask]
}
