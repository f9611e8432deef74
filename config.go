package cfr

import (
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
)

// paramsFile is the HCL representation of Params. All attributes are
// optional and default to DefaultParams.
//
//	iterations   = 10000
//	mode         = "sampled"
//	sampling     = "external"
//	max_depth    = 15
//	parallelism  = 8
type paramsFile struct {
	Iterations         *int     `hcl:"iterations,optional"`
	Mode               *string  `hcl:"mode,optional"`
	Sampling           *string  `hcl:"sampling,optional"`
	SampleRate         *float64 `hcl:"sample_rate,optional"`
	ExplorationEpsilon *float64 `hcl:"exploration_epsilon,optional"`
	MaxDepth           *int     `hcl:"max_depth,optional"`
	Parallelism        *int     `hcl:"parallelism,optional"`
	LinearAveraging    *bool    `hcl:"linear_averaging,optional"`
	Seed               *int64   `hcl:"seed,optional"`
	ProgressEvery      *int     `hcl:"progress_every,optional"`
}

// LoadParams reads Params from an HCL file.
func LoadParams(filename string) (Params, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return Params{}, errors.Wrap(err, "read params")
	}

	return ParseParams(src, filename)
}

// ParseParams parses Params from HCL source. The filename is only used in
// error messages.
func ParseParams(src []byte, filename string) (Params, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Params{}, errors.Errorf("failed to parse HCL: %s", diags.Error())
	}

	var pf paramsFile
	if diags := gohcl.DecodeBody(file.Body, nil, &pf); diags.HasErrors() {
		return Params{}, errors.Errorf("failed to decode HCL: %s", diags.Error())
	}

	return pf.params()
}

func (pf *paramsFile) params() (Params, error) {
	p := DefaultParams()
	if pf.Iterations != nil {
		p.Iterations = *pf.Iterations
	}

	if pf.Mode != nil {
		switch *pf.Mode {
		case FullTraversal.String():
			p.Mode = FullTraversal
		case Sampled.String():
			p.Mode = Sampled
		default:
			return Params{}, errors.Errorf("unknown mode %q", *pf.Mode)
		}
	}

	if pf.Sampling != nil {
		switch *pf.Sampling {
		case UniformSampling.String():
			p.Sampling = UniformSampling
		case ExternalSampling.String():
			p.Sampling = ExternalSampling
		case OutcomeSampling.String():
			p.Sampling = OutcomeSampling
		default:
			return Params{}, errors.Errorf("unknown sampling scheme %q", *pf.Sampling)
		}
	}

	if pf.SampleRate != nil {
		p.SampleRate = *pf.SampleRate
	}
	if pf.ExplorationEpsilon != nil {
		p.ExplorationEpsilon = *pf.ExplorationEpsilon
	}
	if pf.MaxDepth != nil {
		p.MaxDepth = *pf.MaxDepth
	}
	if pf.Parallelism != nil {
		p.Parallelism = *pf.Parallelism
	}
	if pf.LinearAveraging != nil {
		p.LinearAveraging = *pf.LinearAveraging
	}
	if pf.Seed != nil {
		p.Seed = *pf.Seed
	}
	if pf.ProgressEvery != nil {
		p.ProgressEvery = *pf.ProgressEvery
	}

	return p, p.Validate()
}
