package gosymopt

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/njchilds90/gosymopt/symbolic"
)

// ScalarFunc is an opaque objective or constraint. vars holds every
// variable's value keyed by internal name.
type ScalarFunc func(vars map[string]float64) float64

// GradientFunc returns the partial derivatives of a ScalarFunc with respect
// to the active variables, in solver order.
type GradientFunc func(vars map[string]float64) []float64

// JacobianFunc is a gradient prepared for one solve: it takes the full
// binding set and returns one entry per active variable.
type JacobianFunc func(vars map[string]float64) ([]float64, error)

// Term is the thing an objective or constraint evaluates.
type Term interface {
	// Evaluate computes the term for the given bindings.
	Evaluate(vars map[string]float64) (float64, error)
	// Jacobian returns the gradient with respect to active, accepting
	// bindings for all. A nil JacobianFunc with nil error means no gradient
	// is available and the solver should difference numerically.
	Jacobian(active, all []*Variable) (JacobianFunc, error)
	// ReduceForDisplay substitutes passive variables by their values.
	ReduceForDisplay(passive []*Variable) symbolic.Expr
	// Expr is the symbolic form of the term.
	Expr() symbolic.Expr
}

// symbolResolver maps an internal variable name to the symbol name used in
// expressions.
type symbolResolver func(name string) string

func identitySymbol(name string) string { return name }

// ============================================================
// ExprTerm — symbolic expression
// ============================================================

// ExprTerm evaluates a symbolic expression. The compiled form is cached per
// ordered tuple of binding names and recompiled whenever the tuple changes.
type ExprTerm struct {
	expr         symbolic.Expr
	autoJacobian bool
	resolve      symbolResolver

	evalKey  string
	evalFn   *symbolic.Compiled
	evalKeys []string

	jacKey string
	jacFn  JacobianFunc
}

// NewExprTerm wraps expr. With autoJacobian the gradient is derived
// symbolically on the first Jacobian request.
func NewExprTerm(expr symbolic.Expr, autoJacobian bool) *ExprTerm {
	return &ExprTerm{expr: expr.Simplify(), autoJacobian: autoJacobian, resolve: identitySymbol}
}

// withResolver returns a fresh copy of t with an empty compile cache.
func (t *ExprTerm) withResolver(r symbolResolver) *ExprTerm {
	return &ExprTerm{expr: t.expr, autoJacobian: t.autoJacobian, resolve: r}
}

func (t *ExprTerm) Expr() symbolic.Expr { return t.expr }
func (t *ExprTerm) AutoJacobian() bool  { return t.autoJacobian }

func (t *ExprTerm) Evaluate(vars map[string]float64) (float64, error) {
	names := sortedKeys(vars)
	key := strings.Join(names, "\x00")
	if t.evalFn == nil || key != t.evalKey {
		fn, err := symbolic.Compile(t.expr, t.symbols(names))
		if err != nil {
			return 0, keyMismatch(err, names)
		}
		t.evalKey, t.evalFn, t.evalKeys = key, fn, names
	}
	vals := make([]float64, len(t.evalKeys))
	for i, name := range t.evalKeys {
		vals[i] = vars[name]
	}
	return t.evalFn.Call(vals...)
}

func (t *ExprTerm) Jacobian(active, all []*Variable) (JacobianFunc, error) {
	if !t.autoJacobian {
		return nil, nil
	}
	activeNames, allNames := variableNames(active), variableNames(all)
	key := strings.Join(activeNames, "\x00") + "\x01" + strings.Join(allNames, "\x00")
	if t.jacFn != nil && key == t.jacKey {
		return t.jacFn, nil
	}
	grad := symbolic.Gradient(t.expr, t.symbols(activeNames))
	vec, err := symbolic.CompileVector(grad, t.symbols(allNames))
	if err != nil {
		return nil, keyMismatch(err, allNames)
	}
	t.jacKey = key
	t.jacFn = func(vars map[string]float64) ([]float64, error) {
		vals := make([]float64, len(allNames))
		for i, name := range allNames {
			v, ok := vars[name]
			if !ok {
				return nil, fmt.Errorf("%w: missing binding %q", ErrEvaluationKeyMismatch, name)
			}
			vals[i] = v
		}
		return vec.Call(vals...)
	}
	return t.jacFn, nil
}

func (t *ExprTerm) ReduceForDisplay(passive []*Variable) symbolic.Expr {
	values := make(map[string]symbolic.Expr, len(passive))
	for _, v := range passive {
		values[v.Symbol().Name()] = symbolic.N(v.Value())
	}
	return symbolic.SubAll(t.expr, values)
}

func (t *ExprTerm) symbols(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = t.resolve(name)
	}
	return out
}

// ============================================================
// FuncTerm — opaque Go function
// ============================================================

// FuncTerm forwards evaluation to a Go function. Its symbolic form is an
// undefined function applied to the variables declared when it was created.
type FuncTerm struct {
	fn   ScalarFunc
	grad GradientFunc
	name string
	args []*symbolic.Sym
}

// NewFuncTerm wraps fn. grad may be nil. name is the display name; "f" when
// empty.
func NewFuncTerm(fn ScalarFunc, grad GradientFunc, name string, vars []*Variable) *FuncTerm {
	if name == "" {
		name = "f"
	}
	args := make([]*symbolic.Sym, len(vars))
	for i, v := range vars {
		args[i] = v.Symbol()
	}
	return &FuncTerm{fn: fn, grad: grad, name: name, args: args}
}

func (t *FuncTerm) Evaluate(vars map[string]float64) (float64, error) { return t.fn(vars), nil }

func (t *FuncTerm) Jacobian(active, _ []*Variable) (JacobianFunc, error) {
	if t.grad == nil {
		return nil, nil
	}
	want := len(active)
	return func(vars map[string]float64) ([]float64, error) {
		g := t.grad(vars)
		if len(g) != want {
			return nil, fmt.Errorf("%w: %s returned %d entries for %d active variables", ErrGradientLength, t.name, len(g), want)
		}
		return g, nil
	}, nil
}

func (t *FuncTerm) Expr() symbolic.Expr {
	args := make([]symbolic.Expr, len(t.args))
	for i, s := range t.args {
		args[i] = s
	}
	return symbolic.ApplyOf(t.name, args...)
}

// ReduceForDisplay pins passive arguments, printing them as name=value.
func (t *FuncTerm) ReduceForDisplay(passive []*Variable) symbolic.Expr {
	pinned := make(map[string]float64, len(passive))
	for _, v := range passive {
		pinned[v.Symbol().Name()] = v.Value()
	}
	args := make([]symbolic.Expr, len(t.args))
	for i, s := range t.args {
		if v, ok := pinned[s.Name()]; ok {
			args[i] = symbolic.Pin(s, v)
		} else {
			args[i] = s
		}
	}
	return symbolic.ApplyOf(t.name, args...)
}

// ============================================================
// Constraint
// ============================================================

// Relation compares a constraint expression with zero.
type Relation string

const (
	Less         Relation = "<"
	Greater      Relation = ">"
	LessEqual    Relation = "<="
	GreaterEqual Relation = ">="
	Equal        Relation = "="
)

func ParseRelation(s string) (Relation, error) {
	switch r := Relation(strings.TrimSpace(s)); r {
	case Less, Greater, LessEqual, GreaterEqual, Equal:
		return r, nil
	case "==":
		return Equal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRelation, s)
}

func (r Relation) IsEquality() bool { return r == Equal }

func (r Relation) LaTeX() string {
	switch r {
	case LessEqual:
		return `\leq`
	case GreaterEqual:
		return `\geq`
	}
	return string(r)
}

// Constraint is a term compared with zero: "term <rel> 0". It has its own
// active flag, independent of variable activity.
type Constraint struct {
	Term
	rel    Relation
	active bool
}

// ConstraintOption configures a constraint at registration.
type ConstraintOption func(*Constraint)

func ConstraintActive() ConstraintOption  { return func(c *Constraint) { c.active = true } }
func ConstraintPassive() ConstraintOption { return func(c *Constraint) { c.active = false } }

func (c *Constraint) Relation() Relation { return c.rel }
func (c *Constraint) IsActive() bool     { return c.active }
func (c *Constraint) SetActive()         { c.active = true }
func (c *Constraint) SetPassive()        { c.active = false }

// orient maps a term value to the form the solver enforces: >= 0 for
// inequalities, == 0 for equalities. Strict inequalities are treated as
// non-strict.
func (c *Constraint) orient(v float64) float64 {
	switch c.rel {
	case Less, LessEqual:
		return -v
	}
	return v
}

// violation is how far v is from satisfying the constraint.
func (c *Constraint) violation(v float64) float64 {
	g := c.orient(v)
	if c.rel.IsEquality() {
		if g < 0 {
			return -g
		}
		return g
	}
	if g < 0 {
		return -g
	}
	return 0
}

// ============================================================
// helpers
// ============================================================

func keyMismatch(err error, names []string) error {
	if errors.Is(err, symbolic.ErrUnbound) {
		return fmt.Errorf("%w: bindings %v: %v", ErrEvaluationKeyMismatch, names, err)
	}
	return err
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func variableNames(vars []*Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name()
	}
	return out
}
