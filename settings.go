package gosymopt

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/optimize"
)

// Method names the gonum local optimizer used for the inner minimization.
type Method string

const (
	LBFGS           Method = "lbfgs"
	BFGS            Method = "bfgs"
	CG              Method = "cg"
	GradientDescent Method = "gradient-descent"
	NelderMead      Method = "nelder-mead"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case LBFGS, BFGS, CG, GradientDescent, NelderMead:
		return m, nil
	case "":
		return LBFGS, nil
	}
	return "", fmt.Errorf("gosymopt: unknown method %q", s)
}

func (m Method) usesGradient() bool { return m != NelderMead }

func (m Method) build() (optimize.Method, error) {
	switch m {
	case LBFGS, "":
		return &optimize.LBFGS{}, nil
	case BFGS:
		return &optimize.BFGS{}, nil
	case CG:
		return &optimize.CG{}, nil
	case GradientDescent:
		return &optimize.GradientDescent{}, nil
	case NelderMead:
		return &optimize.NelderMead{}, nil
	}
	return nil, fmt.Errorf("gosymopt: unknown method %q", string(m))
}

// Settings are the solver tolerances and limits.
type Settings struct {
	// MaxIterations bounds major iterations of each inner solve. Zero means
	// no limit.
	MaxIterations int
	// GradientTolerance is the gradient norm at which an inner solve stops,
	// and the projected-gradient norm accepted as a stationary point.
	GradientTolerance float64
	// FunctionTolerance is the change in objective below which an inner
	// solve is considered stalled, over StallIterations iterations.
	FunctionTolerance float64
	StallIterations   int
	// ConstraintTolerance is the largest constraint violation accepted.
	// Zero means the default.
	ConstraintTolerance float64
	// MaxOuterIterations bounds augmented-Lagrangian multiplier updates.
	// Zero means the default.
	MaxOuterIterations int
	// InitialPenalty is the first augmented-Lagrangian penalty weight. Zero
	// means the default.
	InitialPenalty float64
}

func DefaultSettings() Settings {
	return Settings{
		MaxIterations:       1000,
		GradientTolerance:   1e-8,
		FunctionTolerance:   1e-12,
		StallIterations:     20,
		ConstraintTolerance: 1e-6,
		MaxOuterIterations:  30,
		InitialPenalty:      10,
	}
}

func (s Settings) gonum() *optimize.Settings {
	return &optimize.Settings{
		GradientThreshold: s.GradientTolerance,
		MajorIterations:   s.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   s.FunctionTolerance,
			Relative:   s.FunctionTolerance,
			Iterations: s.StallIterations,
		},
	}
}

// SolveOption configures one Solve call.
type SolveOption func(*solveConfig)

type solveConfig struct {
	verbose  bool
	enforce  bool
	method   Method
	settings Settings
}

// Verbose logs every major iteration at info level. On by default.
func Verbose(on bool) SolveOption { return func(c *solveConfig) { c.verbose = on } }

// EnforceConstraints controls whether active constraints reach the solver.
// When off, constraints are only displayed. On by default.
func EnforceConstraints(on bool) SolveOption { return func(c *solveConfig) { c.enforce = on } }

// UseMethod overrides the problem's method for one solve.
func UseMethod(m Method) SolveOption { return func(c *solveConfig) { c.method = m } }

// UseSettings overrides the problem's settings for one solve.
func UseSettings(s Settings) SolveOption { return func(c *solveConfig) { c.settings = s } }
