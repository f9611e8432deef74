package policy

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicehand/go-cfr"
	"github.com/nicehand/go-cfr/kuhn"
	"github.com/nicehand/go-cfr/ldbstore"
)

func TestPolicy_Cache(t *testing.T) {
	table := cfr.NewTable()
	require.NoError(t, table.Restore("K-rrb", []float64{0, 1}, []float64{1, 9}))
	p, err := FromTable(table, 10)
	require.NoError(t, err)

	strat, ok, err := p.ActionProbabilities("K-rrb", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.1, 0.9}, strat, 1e-12)

	_, _, err = p.ActionProbabilities("K-rrb", 2)
	require.NoError(t, err)
	hits, misses := p.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestPolicy_ResultsAreCopies(t *testing.T) {
	table := cfr.NewTable()
	require.NoError(t, table.Restore("K-rrb", []float64{0, 1}, []float64{1, 3}))
	p, err := FromTable(table, 10)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		strat, ok, err := p.ActionProbabilities("K-rrb", 2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []float64{0.25, 0.75}, strat)
		strat[0], strat[1] = 1, 0
	}
}

func TestPolicy_Unvisited(t *testing.T) {
	p, err := FromTable(cfr.NewTable(), 10)
	require.NoError(t, err)

	strat, ok, err := p.ActionProbabilities("J-rr", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{0.5, 0.5}, strat)

	_, ok, err = p.ActionProbabilities("J-rr", 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPolicy_ActionCountMismatch(t *testing.T) {
	table := cfr.NewTable()
	require.NoError(t, table.Restore("x", []float64{0, 1}, []float64{1, 1}))
	p, err := FromTable(table, 10)
	require.NoError(t, err)

	_, _, err = p.ActionProbabilities("x", 3)
	assert.Error(t, err)
}

func TestPolicy_SampleAction(t *testing.T) {
	table := cfr.NewTable()
	require.NoError(t, table.Restore("K-rr", []float64{0, 0}, []float64{0, 5}))
	p, err := FromTable(table, 10)
	require.NoError(t, err)

	state := kuhn.NewGame().Apply(kuhn.King).Apply(kuhn.Jack)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		a, err := p.SampleAction(rng, state)
		require.NoError(t, err)
		assert.Equal(t, 1, a) // Always bet.
	}
}

func TestPolicy_Sources(t *testing.T) {
	trainer, err := cfr.NewTrainer(cfr.DefaultParams())
	require.NoError(t, err)
	require.NoError(t, trainer.Run(context.Background(), []cfr.GameState{kuhn.NewGame()}, 100))

	dir := t.TempDir()
	path := filepath.Join(dir, "kuhn.gz")
	require.NoError(t, trainer.Table().SaveFile(path))
	fromFile, err := Load(path, 4)
	require.NoError(t, err)

	store, err := ldbstore.Open(filepath.Join(dir, "ldb"), nil)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(trainer.Table()))
	fromStore, err := New(store, 4)
	require.NoError(t, err)

	trainer.Table().Range(func(key string, node *cfr.Node) bool {
		expected := node.AverageStrategy()
		got, ok, err := fromFile.ActionProbabilities(key, node.NumActions())
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDeltaSlice(t, expected, got, 1e-12, key)

		got, ok, err = fromStore.ActionProbabilities(key, node.NumActions())
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDeltaSlice(t, expected, got, 1e-12, key)
		return true
	})
}
