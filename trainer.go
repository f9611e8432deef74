package cfr

import (
	"context"
	"encoding/gob"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/golang/glog"
	"github.com/nicehand/go-cfr/sampling"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Progress is reported periodically while a Trainer runs.
type Progress struct {
	Iteration int           // Iterations completed by the trainer, across runs.
	Completed int           // Iterations completed in the current run.
	Total     int           // Iterations requested in the current run.
	TableSize int           // Number of information sets visited.
	Stats     TraversalStats
	Elapsed   time.Duration // Since the start of the current run.
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithEvaluator sets the Evaluator consulted at the depth limit.
func WithEvaluator(e Evaluator) Option {
	return func(t *Trainer) { t.evaluator = e }
}

// WithClock sets the clock used to time training runs.
func WithClock(clock quartz.Clock) Option {
	return func(t *Trainer) { t.clock = clock }
}

// WithTable trains into an existing table, e.g. one restored from a checkpoint.
func WithTable(table *Table) Option {
	return func(t *Trainer) { t.table = table }
}

// WithProgress registers a callback invoked every Params.ProgressEvery
// iterations and once at the end of each run. Calls are serialized.
func WithProgress(fn func(Progress)) Option {
	return func(t *Trainer) { t.progress = fn }
}

// Trainer runs CFR+ iterations over a set of root states, accumulating into
// a Table shared by all of its workers.
type Trainer struct {
	params    Params
	table     *Table
	solver    Solver
	evaluator Evaluator
	clock     quartz.Clock
	progress  func(Progress)

	iter    atomic.Int64
	elapsed atomic.Int64 // Cumulative run time, in nanoseconds.

	progressMu sync.Mutex
}

// NewTrainer returns a Trainer for the given Params.
func NewTrainer(params Params, opts ...Option) (*Trainer, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid params")
	}

	t := &Trainer{params: params}
	for _, opt := range opts {
		opt(t)
	}

	if t.table == nil {
		t.table = NewTable()
	}

	if t.evaluator == nil {
		t.evaluator = StaticEvaluator{}
	}

	if t.clock == nil {
		t.clock = quartz.NewReal()
	}

	t.solver = newSolver(t.table, params, t.evaluator)
	return t, nil
}

func newSolver(table *Table, params Params, evaluator Evaluator) Solver {
	switch params.Mode {
	case Sampled:
		return NewMCCFR(table, params, evaluator, newSampler(params))
	default:
		return NewCFRPlus(table, params, evaluator)
	}
}

func newSampler(params Params) Sampler {
	switch params.Sampling {
	case ExternalSampling:
		return sampling.NewExternalSampler()
	case OutcomeSampling:
		return sampling.NewOutcomeSampler(params.ExplorationEpsilon)
	default:
		return sampling.NewUniformSampler(params.SampleRate)
	}
}

// Params returns the trainer's configuration.
func (t *Trainer) Params() Params {
	return t.params
}

// Table returns the table of nodes being trained.
func (t *Trainer) Table() *Table {
	return t.table
}

// Iter returns the number of iterations completed so far.
func (t *Trainer) Iter() int {
	return int(t.iter.Load())
}

// Elapsed returns the total time spent in Run.
func (t *Trainer) Elapsed() time.Duration {
	return time.Duration(t.elapsed.Load())
}

// Stats returns the traversal counters accumulated by the trainer's solver.
func (t *Trainer) Stats() TraversalStats {
	return t.solver.Stats()
}

// Node returns the node for the given information set, if it has been visited.
func (t *Trainer) Node(key string) (*Node, bool) {
	return t.table.Get(key)
}

// AverageStrategy returns the average strategy for the given information
// set, if it has been visited.
func (t *Trainer) AverageStrategy(key string) ([]float64, bool) {
	return t.table.AverageStrategy(key)
}

// Train runs Params.Iterations iterations over the given roots.
func (t *Trainer) Train(ctx context.Context, roots ...GameState) error {
	return t.Run(ctx, roots, t.params.Iterations)
}

// Run performs the given number of iterations. Each iteration traverses
// every root once per player. Up to Params.Parallelism iterations run
// concurrently.
//
// Cancelling ctx stops the run between iterations; the table is left in a
// valid state. Run returns the first error encountered, e.g. a
// ContractViolation raised by one of the roots.
func (t *Trainer) Run(ctx context.Context, roots []GameState, iterations int) error {
	if iterations == 0 {
		return nil
	} else if iterations < 0 {
		return errors.Errorf("iterations must be >= 0, got %d", iterations)
	}

	if len(roots) == 0 {
		return errors.New("no root states given")
	}

	for i, root := range roots {
		if root == nil {
			return errors.Errorf("root %d is nil", i)
		}
	}

	glog.Infof("Starting %d %s CFR+ iterations over %d roots with %d workers",
		iterations, t.params.Mode, len(roots), t.params.Parallelism)
	start := t.clock.Now()
	first := t.Iter()
	every := t.params.ProgressEvery
	if every == 0 {
		every = iterations / 10
	}

	if every <= 0 {
		every = 1
	}

	var completed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.params.Parallelism)
	for i := 0; i < iterations; i++ {
		if gctx.Err() != nil {
			break
		}

		iter := first + i + 1
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			if err := t.runIteration(roots, iter); err != nil {
				glog.Errorf("Iteration %d failed: %v", iter, err)
				return err
			}

			t.iter.Add(1)
			if n := int(completed.Add(1)); n%every == 0 && n < iterations {
				t.reportProgress(n, iterations, start)
			}

			return nil
		})
	}

	err := g.Wait()
	t.elapsed.Add(int64(t.clock.Since(start)))
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		glog.Infof("Training interrupted after %d/%d iterations", completed.Load(), iterations)
		return err
	}

	t.reportProgress(int(completed.Load()), iterations, start)
	stats := t.Stats()
	glog.Infof("Finished %d iterations in %v: %d information sets, %d nodes visited, %d depth cutoffs",
		iterations, t.clock.Since(start), t.table.Len(), stats.NodesVisited, stats.DepthCutoffs)
	return nil
}

func (t *Trainer) runIteration(roots []GameState, iter int) error {
	var rng *rand.Rand
	if t.params.Mode == Sampled {
		rng = iterationRand(t.params.Seed, iter)
	}

	for i, root := range roots {
		for player := 0; player < root.NumPlayers(); player++ {
			if _, err := t.solver.Solve(rng, root, player, iter); err != nil {
				return errors.Wrapf(err, "iteration %d, root %d, player %d", iter, i, player)
			}
		}
	}

	return nil
}

func (t *Trainer) reportProgress(completed, total int, start time.Time) {
	t.progressMu.Lock()
	defer t.progressMu.Unlock()

	p := Progress{
		Iteration: t.Iter(),
		Completed: completed,
		Total:     total,
		TableSize: t.table.Len(),
		Stats:     t.Stats(),
		Elapsed:   t.clock.Since(start),
	}

	glog.V(1).Infof("[%d/%d] %d information sets, %d nodes visited, %d depth cutoffs, elapsed %v",
		p.Completed, p.Total, p.TableSize, p.Stats.NodesVisited, p.Stats.DepthCutoffs, p.Elapsed)
	if t.progress != nil {
		t.progress(p)
	}
}

// ResolveSubgame trains a fresh table on the subgame rooted at root for the
// given number of iterations, using the trainer's Params, and merges the
// resulting strategy sums into the trainer's table.
func (t *Trainer) ResolveSubgame(ctx context.Context, root GameState, iterations int) error {
	sub, err := NewTrainer(t.params, WithEvaluator(t.evaluator), WithClock(t.clock))
	if err != nil {
		return err
	}

	if err := sub.Run(ctx, []GameState{root}, iterations); err != nil {
		return errors.Wrap(err, "resolve subgame")
	}

	glog.V(1).Infof("Merging %d resolved information sets", sub.table.Len())
	return t.table.Merge(sub.table)
}

type checkpointHeader struct {
	Version int
	Iter    int64
	Elapsed int64
	Params  Params
}

// SaveCheckpoint writes the trainer's table and progress to path as a
// gzip-compressed file. The file is replaced atomically.
func (t *Trainer) SaveCheckpoint(path string) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		hdr := checkpointHeader{
			Version: tableFormatVersion,
			Iter:    t.iter.Load(),
			Elapsed: t.elapsed.Load(),
			Params:  t.params,
		}

		enc := gob.NewEncoder(w)
		if err := enc.Encode(&hdr); err != nil {
			return err
		}

		return t.table.encode(enc)
	})
}

// LoadTrainer restores a Trainer from a checkpoint written by
// SaveCheckpoint. The checkpoint's Params are used.
func LoadTrainer(path string, opts ...Option) (*Trainer, error) {
	var hdr checkpointHeader
	var table *Table
	err := readFile(path, func(r io.Reader) error {
		dec := gob.NewDecoder(r)
		if err := dec.Decode(&hdr); err != nil {
			return errors.Wrapf(ErrCorruptTable, "read checkpoint header: %v", err)
		}

		if hdr.Version != tableFormatVersion {
			return errors.Wrapf(ErrCorruptTable, "unsupported checkpoint version %d", hdr.Version)
		}

		var err error
		table, err = decodeTable(dec)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "load checkpoint %v", path)
	}

	opts = append(opts, WithTable(table))
	t, err := NewTrainer(hdr.Params, opts...)
	if err != nil {
		return nil, err
	}

	t.iter.Store(hdr.Iter)
	t.elapsed.Store(hdr.Elapsed)
	return t, nil
}
