// Package gosymopt builds constrained nonlinear optimization problems from
// named, bounded variables and symbolic or plain-Go objectives, and solves
// them with gonum's optimizers.
//
// A Problem owns its variables. Each variable is active (a free degree of
// freedom) or passive (a parameter held at its current value); the partition
// is read from the flags every time it is needed, so toggling a flag between
// two solves always takes effect.
//
//	p := gosymopt.New()
//	x, _ := p.AddVariable("x", gosymopt.Bounds(-10, 10))
//	y, _ := p.AddVariable("y", gosymopt.Bounds(-10, 10))
//	p.SetObjectiveExpr(symbolic.AddOf(
//		symbolic.PowOf(symbolic.Minus(x.Symbol(), symbolic.N(1)), symbolic.N(2)),
//		symbolic.PowOf(symbolic.Minus(y.Symbol(), symbolic.N(2)), symbolic.N(2)),
//	), true)
//	res, err := p.Solve()
package gosymopt

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/njchilds90/gosymopt/symbolic"
)

// OptType selects minimization or maximization.
type OptType string

const (
	Minimize OptType = "min"
	Maximize OptType = "max"
)

func ParseOptType(s string) (OptType, error) {
	switch t := OptType(s); t {
	case Minimize, Maximize:
		return t, nil
	case "":
		return Minimize, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOptType, s)
}

// sign turns maximization into minimization of the negated objective.
func (t OptType) sign() float64 {
	if t == Maximize {
		return -1
	}
	return 1
}

func (t OptType) verb() string {
	if t == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Problem is a declarative optimization model. It is not safe for concurrent
// use.
type Problem struct {
	optType     OptType
	vars        []*Variable
	byName      map[string]*Variable
	bySymbol    map[string]*Variable
	objective   Term
	constraints []*Constraint

	// populated by Solve
	activeOrder []string
	current     map[string]float64
	result      *Result

	method   Method
	settings Settings
	logger   *zap.Logger
}

// Option configures a Problem.
type Option func(*Problem)

func WithOptType(t OptType) Option { return func(p *Problem) { p.optType = t } }

// WithLogger sets the logger used by Solve. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Problem) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMethod(m Method) Option { return func(p *Problem) { p.method = m } }

func WithSettings(s Settings) Option { return func(p *Problem) { p.settings = s } }

func New(opts ...Option) *Problem {
	p := &Problem{
		optType:  Minimize,
		byName:   map[string]*Variable{},
		bySymbol: map[string]*Variable{},
		method:   LBFGS,
		settings: DefaultSettings(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Problem) OptType() OptType { return p.optType }

func (p *Problem) SetOptType(t OptType) error {
	if _, err := ParseOptType(string(t)); err != nil {
		return err
	}
	p.optType = t
	return nil
}

// ============================================================
// Variables
// ============================================================

// AddVariable registers an active variable. Names and display symbols must
// be unique within the problem.
func (p *Problem) AddVariable(name string, opts ...VariableOption) (*Variable, error) {
	return p.register(name, true, opts)
}

// AddParameter registers a variable that is passive unless an option says
// otherwise.
func (p *Problem) AddParameter(name string, opts ...VariableOption) (*Variable, error) {
	return p.register(name, false, opts)
}

func (p *Problem) register(name string, active bool, opts []VariableOption) (*Variable, error) {
	v, err := newVariable(name, active, opts)
	if err != nil {
		return nil, err
	}
	if _, dup := p.byName[name]; dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if other, dup := p.bySymbol[v.sym.Name()]; dup {
		return nil, fmt.Errorf("%w: symbol %q already used by %q", ErrDuplicateName, v.sym.Name(), other.name)
	}
	p.vars = append(p.vars, v)
	p.byName[name] = v
	p.bySymbol[v.sym.Name()] = v
	return v, nil
}

// Variable looks a variable up by internal name.
func (p *Problem) Variable(name string) (*Variable, bool) {
	v, ok := p.byName[name]
	return v, ok
}

// Lookup is Variable with an error for unknown names.
func (p *Problem) Lookup(name string) (*Variable, error) {
	v, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return v, nil
}

// Variables returns all variables in registration order.
func (p *Problem) Variables() []*Variable { return append([]*Variable(nil), p.vars...) }

func (p *Problem) ActiveVariables() []*Variable {
	return p.filterVariables(true)
}

func (p *Problem) PassiveVariables() []*Variable {
	return p.filterVariables(false)
}

func (p *Problem) filterVariables(active bool) []*Variable {
	out := make([]*Variable, 0, len(p.vars))
	for _, v := range p.vars {
		if v.active == active {
			out = append(out, v)
		}
	}
	return out
}

// symbolFor resolves an internal name to the symbol name expressions use.
func (p *Problem) symbolFor(name string) string {
	if v, ok := p.byName[name]; ok {
		return v.sym.Name()
	}
	return name
}

// ============================================================
// Objective
// ============================================================

// SetObjective installs t, replacing any previous objective. An *ExprTerm
// is copied, so the same term may be shared between problems.
func (p *Problem) SetObjective(t Term) {
	p.objective = p.attach(t)
}

// attach binds expression terms to this problem's symbol names.
func (p *Problem) attach(t Term) Term {
	if et, ok := t.(*ExprTerm); ok {
		return et.withResolver(p.symbolFor)
	}
	return t
}

// SetObjectiveExpr installs a symbolic objective. With autoJacobian the
// gradient is derived symbolically at solve time.
func (p *Problem) SetObjectiveExpr(expr symbolic.Expr, autoJacobian bool) {
	p.SetObjective(NewExprTerm(expr, autoJacobian))
}

// SetObjectiveFunc installs a Go objective. grad may be nil, in which case
// the solver differences numerically. The display form is name applied to
// the variables registered so far.
func (p *Problem) SetObjectiveFunc(fn ScalarFunc, grad GradientFunc, name string) {
	p.SetObjective(NewFuncTerm(fn, grad, name, p.vars))
}

func (p *Problem) Objective() Term { return p.objective }

// ============================================================
// Constraints
// ============================================================

// NoAutoJacobian disables symbolic gradient derivation for an expression
// constraint.
func NoAutoJacobian() ConstraintOption {
	return func(c *Constraint) {
		if t, ok := c.Term.(*ExprTerm); ok {
			t.autoJacobian = false
		}
	}
}

// AddConstraint appends "t rel 0". Constraints are active unless an option
// says otherwise.
func (p *Problem) AddConstraint(t Term, rel Relation, opts ...ConstraintOption) (*Constraint, error) {
	rel, err := ParseRelation(string(rel))
	if err != nil {
		return nil, err
	}
	c := &Constraint{Term: p.attach(t), rel: rel, active: true}
	for _, opt := range opts {
		opt(c)
	}
	p.constraints = append(p.constraints, c)
	return c, nil
}

func (p *Problem) AddConstraintExpr(expr symbolic.Expr, rel Relation, opts ...ConstraintOption) (*Constraint, error) {
	return p.AddConstraint(NewExprTerm(expr, true), rel, opts...)
}

// AddConstraintFunc appends a Go constraint. name defaults to "g".
func (p *Problem) AddConstraintFunc(fn ScalarFunc, rel Relation, grad GradientFunc, name string, opts ...ConstraintOption) (*Constraint, error) {
	if name == "" {
		name = "g"
	}
	return p.AddConstraint(NewFuncTerm(fn, grad, name, p.vars), rel, opts...)
}

func (p *Problem) Constraints() []*Constraint { return append([]*Constraint(nil), p.constraints...) }

func (p *Problem) ActiveConstraints() []*Constraint {
	return p.filterConstraints(true)
}

func (p *Problem) PassiveConstraints() []*Constraint {
	return p.filterConstraints(false)
}

func (p *Problem) filterConstraints(active bool) []*Constraint {
	out := make([]*Constraint, 0, len(p.constraints))
	for _, c := range p.constraints {
		if c.active == active {
			out = append(out, c)
		}
	}
	return out
}

// ============================================================
// Solve state
// ============================================================

// ActiveIndexOrder is the active-variable order of the last Solve.
func (p *Problem) ActiveIndexOrder() []string { return append([]string(nil), p.activeOrder...) }

// CurrentValues is a copy of the binding set at the last evaluation.
func (p *Problem) CurrentValues() map[string]float64 {
	out := make(map[string]float64, len(p.current))
	for k, v := range p.current {
		out[k] = v
	}
	return out
}

// Result is the last successful solve, or nil.
func (p *Problem) Result() *Result { return p.result }

// ApplyResult copies the last solution into the active variables' values,
// so the next Solve starts from it.
func (p *Problem) ApplyResult() error {
	if p.result == nil {
		return fmt.Errorf("%w: no result to apply", ErrIncompleteModel)
	}
	for i, name := range p.result.Order {
		v, err := p.Lookup(name)
		if err != nil {
			return err
		}
		v.SetValue(p.result.X[i])
	}
	return nil
}
