package cfr

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_ConcurrentCreate(t *testing.T) {
	table := NewTable()
	const workers = 16
	nodes := make([][]*Node, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				nodes[w] = append(nodes[w], table.getOrCreate(fmt.Sprintf("key-%d", i), 3))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 1000, table.Len())
	for w := 1; w < workers; w++ {
		for i := range nodes[w] {
			assert.Same(t, nodes[0][i], nodes[w][i])
		}
	}
}

func TestTable_ConcurrentUpdates(t *testing.T) {
	table := NewTable()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				node := table.getOrCreate("shared", 2)
				node.update([]float64{1, 0}, 1, []float64{0.5, 0.5}, 2)
			}
		}()
	}
	wg.Wait()

	node, ok := table.Get("shared")
	require.True(t, ok)
	assert.Equal(t, []float64{8000, 0}, node.RegretSum())
	assert.Equal(t, []float64{8000, 8000}, node.StrategySum())
}

func TestTable_ActionCountMismatch(t *testing.T) {
	table := NewTable()
	table.getOrCreate("x", 2)
	assert.PanicsWithError(t, `game state contract violation at "x": node has n_actions=2 but state has 3 legal actions`, func() {
		table.getOrCreate("x", 3)
	})
}

func TestTable_Restore(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Restore("a", []float64{1, 2}, []float64{3, 4}))
	strat, ok := table.AverageStrategy("a")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{3.0 / 7, 4.0 / 7}, strat, 1e-12)

	for _, tc := range []struct {
		regrets, strategy []float64
	}{
		{[]float64{1}, []float64{1, 2}},
		{nil, nil},
		{[]float64{-1, 0}, []float64{1, 1}},
		{[]float64{0, 0}, []float64{1, -1}},
	} {
		err := table.Restore("b", tc.regrets, tc.strategy)
		assert.Equal(t, ErrCorruptTable, errors.Cause(err), "%v", tc)
	}

	_, ok = table.Get("b")
	assert.False(t, ok)
}

func TestTable_RangeAndClear(t *testing.T) {
	table := NewTable()
	for i := 0; i < 200; i++ {
		table.getOrCreate(fmt.Sprint(i), 2)
	}

	seen := make(map[string]bool)
	table.Range(func(key string, node *Node) bool {
		seen[key] = true
		return true
	})
	assert.Len(t, seen, 200)

	n := 0
	table.Range(func(key string, node *Node) bool {
		n++
		return n < 10
	})
	assert.Equal(t, 10, n)

	table.Clear()
	assert.Equal(t, 0, table.Len())
	_, ok := table.AverageStrategy("1")
	assert.False(t, ok)
}

func TestTable_Merge(t *testing.T) {
	a := NewTable()
	require.NoError(t, a.Restore("shared", []float64{1, 0}, []float64{1, 1}))
	b := NewTable()
	require.NoError(t, b.Restore("shared", []float64{0, 5}, []float64{2, 0}))
	require.NoError(t, b.Restore("new", []float64{0, 5, 1}, []float64{2, 0, 1}))

	require.NoError(t, a.Merge(b))
	assert.Equal(t, 2, a.Len())

	shared, _ := a.Get("shared")
	assert.Equal(t, []float64{1, 0}, shared.RegretSum())
	assert.Equal(t, []float64{3, 1}, shared.StrategySum())

	added, _ := a.Get("new")
	other, _ := b.Get("new")
	assert.NotSame(t, other, added)
	assert.Equal(t, []float64{0, 5, 1}, added.RegretSum())

	c := NewTable()
	require.NoError(t, c.Restore("shared", []float64{0, 0, 0}, []float64{1, 1, 1}))
	assert.Error(t, a.Merge(c))
}
