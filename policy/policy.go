// Package policy serves the average strategy of a trained node table, e.g.
// to play against a solution or to evaluate it.
package policy

import (
	"math/rand"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/nicehand/go-cfr"
	"github.com/nicehand/go-cfr/sampling"
)

// Source provides the average strategy of an information set.
// *ldbstore.Store implements Source.
type Source interface {
	AverageStrategy(key string) ([]float64, bool, error)
}

// TableSource adapts an in-memory table to Source.
type TableSource struct {
	Table *cfr.Table
}

// AverageStrategy implements Source.
func (ts TableSource) AverageStrategy(key string) ([]float64, bool, error) {
	strat, ok := ts.Table.AverageStrategy(key)
	return strat, ok, nil
}

// Policy is a read-only view of a solution that caches the normalized
// strategies of recently queried information sets. It is safe for
// concurrent use.
type Policy struct {
	src   Source
	cache *lru.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// New returns a Policy over src caching up to cacheSize strategies.
func New(src Source, cacheSize int) (*Policy, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}

	return &Policy{src: src, cache: cache}, nil
}

// FromTable returns a Policy over an in-memory table.
func FromTable(table *cfr.Table, cacheSize int) (*Policy, error) {
	return New(TableSource{Table: table}, cacheSize)
}

// Load returns a Policy over a table checkpoint written by Table.SaveFile.
func Load(path string, cacheSize int) (*Policy, error) {
	table, err := cfr.LoadTableFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load policy %v", path)
	}

	return FromTable(table, cacheSize)
}

// ActionProbabilities returns the probability of each legal action at the
// given information set. If the information set was never visited during
// training, nActions > 0 yields the uniform distribution; otherwise false
// is returned.
func (p *Policy) ActionProbabilities(key string, nActions int) ([]float64, bool, error) {
	if cached, ok := p.cache.Get(key); ok {
		p.hits.Add(1)
		return append([]float64(nil), cached.([]float64)...), true, nil
	}

	p.misses.Add(1)
	strat, ok, err := p.src.AverageStrategy(key)
	if err != nil {
		return nil, false, err
	}

	if !ok {
		if nActions <= 0 {
			return nil, false, nil
		}

		strat = make([]float64, nActions)
		for i := range strat {
			strat[i] = 1.0 / float64(nActions)
		}
		return strat, true, nil
	}

	if nActions > 0 && len(strat) != nActions {
		return nil, false, errors.Errorf("information set %q has %d actions, expected %d", key, len(strat), nActions)
	}

	p.cache.Add(key, append([]float64(nil), strat...))
	return strat, true, nil
}

// SampleAction samples the index of an action to play in the given state.
func (p *Policy) SampleAction(rng *rand.Rand, state cfr.GameState) (int, error) {
	nActions := len(state.LegalActions())
	strat, _, err := p.ActionProbabilities(state.InfoSetKey(), nActions)
	if err != nil {
		return 0, err
	}

	return sampling.SampleOne(strat, rng.Float64()), nil
}

// CacheStats returns the number of cache hits and misses so far.
func (p *Policy) CacheStats() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}
