package cfr

import (
	"github.com/pkg/errors"
)

// DefaultMaxDepth is the deepest level of the tree that is expanded; the root
// is at depth 0. States deeper than this are evaluated instead. Betting
// rounds with raise/re-raise cycles can otherwise recurse without end.
const DefaultMaxDepth = 15

// Mode selects the traversal used by a Trainer.
type Mode int

const (
	FullTraversal Mode = iota // CFR+ over every action
	Sampled                   // Monte Carlo CFR
)

func (m Mode) String() string {
	switch m {
	case FullTraversal:
		return "full"
	case Sampled:
		return "sampled"
	default:
		return "unknown"
	}
}

// SamplingScheme selects how a sampled traversal picks the children to explore.
type SamplingScheme int

const (
	// UniformSampling explores ceil(n*SampleRate) of the n children of every
	// node, chosen uniformly at random.
	UniformSampling SamplingScheme = iota
	// ExternalSampling explores every action of the traversing player and
	// samples one action of opponents and chance.
	ExternalSampling
	// OutcomeSampling samples a single action at every node.
	OutcomeSampling
)

func (s SamplingScheme) String() string {
	switch s {
	case UniformSampling:
		return "uniform"
	case ExternalSampling:
		return "external"
	case OutcomeSampling:
		return "outcome"
	default:
		return "unknown"
	}
}

// Params are the configuration options for a Trainer.
type Params struct {
	Iterations int  // Used by Trainer.Train
	Mode       Mode // Full CFR+ or MCCFR

	Sampling           SamplingScheme // MCCFR only
	SampleRate         float64        // UniformSampling only, in (0, 1]
	ExplorationEpsilon float64        // OutcomeSampling only, in [0, 1)

	// States reached after more than MaxDepth actions are not expanded;
	// their value is estimated by the Trainer's Evaluator instead.
	MaxDepth int
	// Number of iterations to run concurrently.
	Parallelism int

	// Weight the strategy accumulated at iteration t by t (Linear CFR).
	LinearAveraging bool

	// Seed for sampling. Iteration t of a run always uses the same rng
	// stream, regardless of Parallelism.
	Seed int64

	// Report progress every ProgressEvery iterations. Zero means every 10%.
	ProgressEvery int
}

// DefaultParams returns Params for full-traversal CFR+.
func DefaultParams() Params {
	return Params{
		Iterations:         1000,
		Mode:               FullTraversal,
		Sampling:           UniformSampling,
		SampleRate:         1.0,
		ExplorationEpsilon: 0.6,
		MaxDepth:           DefaultMaxDepth,
		Parallelism:        1,
		Seed:               1,
	}
}

// Validate returns an error if the Params cannot be used for training.
func (p Params) Validate() error {
	if p.Iterations < 0 {
		return errors.Errorf("iterations must be >= 0, got %d", p.Iterations)
	}

	switch p.Mode {
	case FullTraversal:
	case Sampled:
		switch p.Sampling {
		case UniformSampling:
			if !(p.SampleRate > 0 && p.SampleRate <= 1) {
				return errors.Errorf("sample rate must be in (0, 1], got %v", p.SampleRate)
			}
		case ExternalSampling:
		case OutcomeSampling:
			if !(p.ExplorationEpsilon >= 0 && p.ExplorationEpsilon < 1) {
				return errors.Errorf("exploration epsilon must be in [0, 1), got %v", p.ExplorationEpsilon)
			}
		default:
			return errors.Errorf("invalid sampling scheme: %d", p.Sampling)
		}
	default:
		return errors.Errorf("invalid mode: %d", p.Mode)
	}

	if p.MaxDepth <= 0 {
		return errors.Errorf("max depth must be > 0, got %d", p.MaxDepth)
	}

	if p.Parallelism <= 0 {
		return errors.Errorf("parallelism must be > 0, got %d", p.Parallelism)
	}

	if p.ProgressEvery < 0 {
		return errors.Errorf("progress interval cannot be negative, got %d", p.ProgressEvery)
	}

	return nil
}

// strategyWeight returns the factor applied to strategy sums at iteration t.
func (p Params) strategyWeight(iter int) float64 {
	if p.LinearAveraging {
		return float64(iter)
	}

	return 1.0
}
