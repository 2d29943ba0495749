package gosymopt

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateName         = errors.New("gosymopt: duplicate variable name")
	ErrInvalidName           = errors.New("gosymopt: invalid variable name")
	ErrInvalidBound          = errors.New("gosymopt: invalid bound")
	ErrInvalidRelation       = errors.New("gosymopt: invalid constraint relation")
	ErrInvalidOptType        = errors.New("gosymopt: invalid optimization type")
	ErrUnknownVariable       = errors.New("gosymopt: unknown variable")
	ErrIncompleteModel       = errors.New("gosymopt: incomplete model")
	ErrEvaluationKeyMismatch = errors.New("gosymopt: evaluation key mismatch")
	ErrGradientLength        = errors.New("gosymopt: gradient length mismatch")
	ErrSolverNonConvergence  = errors.New("gosymopt: solver did not converge")
)

// NonConvergenceError reports a solve that ended without meeting the
// convergence criteria. It matches ErrSolverNonConvergence under errors.Is.
type NonConvergenceError struct {
	Status       string
	Iterations   int
	MaxViolation float64
	Err          error
}

func (e *NonConvergenceError) Error() string {
	msg := fmt.Sprintf("%s: status %s after %d iterations", ErrSolverNonConvergence, e.Status, e.Iterations)
	if e.MaxViolation > 0 {
		msg += fmt.Sprintf(", max constraint violation %g", e.MaxViolation)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NonConvergenceError) Is(target error) bool { return target == ErrSolverNonConvergence }

func (e *NonConvergenceError) Unwrap() error { return e.Err }
