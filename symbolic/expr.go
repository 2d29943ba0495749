// Package symbolic is a small deterministic symbolic math kernel.
//
// Expressions are immutable trees built from numbers, symbols, sums,
// products, powers and elementary functions. Every expression can be
// substituted, differentiated, printed as text or LaTeX, and compiled into a
// plain Go closure over an ordered list of symbol names.
//
// Constants are float64: the kernel exists to feed numerical optimizers, so
// there is no exact rational arithmetic.
package symbolic

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnbound is returned when a symbol has no binding at compile or call time.
	ErrUnbound = errors.New("symbolic: unbound symbol")
	// ErrArity is returned when a compiled function is called with the wrong
	// number of values, or compiled with duplicate names.
	ErrArity = errors.New("symbolic: argument count mismatch")
	// ErrNotNumeric is returned when an expression has no numeric form, such
	// as an undefined function application.
	ErrNotNumeric = errors.New("symbolic: expression cannot be evaluated numerically")
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
	compile(index map[string]int) (evalFunc, error)
}

type evalFunc func(vals []float64) float64

// ============================================================
// Num — numeric constant
// ============================================================

type Num struct{ v float64 }

func N(v float64) *Num { return &Num{v: v} }

func (n *Num) Value() float64        { return n.v }
func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.v == o.v }
func (n *Num) exprType() string      { return "num" }
func (n *Num) String() string        { return formatFloat(n.v) }
func (n *Num) IsZero() bool          { return n.v == 0 }
func (n *Num) IsOne() bool           { return n.v == 1 }

func (n *Num) LaTeX() string {
	switch {
	case math.IsInf(n.v, 1):
		return `\infty`
	case math.IsInf(n.v, -1):
		return `-\infty`
	}
	return formatFloat(n.v)
}

func (n *Num) toJSON() map[string]interface{} {
	if math.IsInf(n.v, 0) || math.IsNaN(n.v) {
		return map[string]interface{}{"type": "num", "value": formatFloat(n.v)}
	}
	return map[string]interface{}{"type": "num", "value": n.v}
}

func (n *Num) compile(map[string]int) (evalFunc, error) {
	v := n.v
	return func([]float64) float64 { return v }, nil
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ============================================================
// Sym — symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Name() string          { return s.name }
func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) LaTeX() string         { return s.name }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}

func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}

func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

func (s *Sym) compile(index map[string]int) (evalFunc, error) {
	i, ok := index[s.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnbound, s.name)
	}
	return func(vals []float64) float64 { return vals[i] }, nil
}

// ============================================================
// Add — sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Minus returns a - b.
func Minus(a, b Expr) Expr { return AddOf(a, Neg(b)) }

// Neg returns -e.
func Neg(e Expr) Expr { return MulOf(N(-1), e) }

// Simplify flattens nested sums, folds constants and collects like terms.
// Terms are ordered by their printed form with the constant last.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	constant := 0.0
	coeffs := map[string]float64{}
	rests := map[string]Expr{}
	keys := []string{}
	for _, t := range flat {
		c, rest := splitCoeff(t)
		if rest == nil {
			constant += c
			continue
		}
		k := rest.String()
		if _, seen := rests[k]; !seen {
			rests[k] = rest
			keys = append(keys, k)
		}
		coeffs[k] += c
	}
	sort.Strings(keys)
	result := make([]Expr, 0, len(keys)+1)
	for _, k := range keys {
		if coeffs[k] == 0 {
			continue
		}
		result = append(result, scale(coeffs[k], rests[k]))
	}
	if constant != 0 {
		result = append(result, N(constant))
	}
	switch len(result) {
	case 0:
		return N(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string { return a.join(Expr.String) }
func (a *Add) LaTeX() string  { return a.join(Expr.LaTeX) }

func (a *Add) join(format func(Expr) string) string {
	var b strings.Builder
	for i, t := range a.terms {
		if i > 0 {
			if c, rest := splitCoeff(t); c < 0 {
				b.WriteString(" - ")
				t = scale(-c, rest)
			} else {
				b.WriteString(" + ")
			}
		}
		b.WriteString(format(t))
	}
	return b.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalAll(a.terms, o.terms)
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "add", "terms": listJSON(a.terms)}
}
func (a *Add) Terms() []Expr { return append([]Expr(nil), a.terms...) }

func (a *Add) compile(index map[string]int) (evalFunc, error) {
	fns, err := compileAll(a.terms, index)
	if err != nil {
		return nil, err
	}
	return func(vals []float64) float64 {
		sum := 0.0
		for _, f := range fns {
			sum += f(vals)
		}
		return sum
	}, nil
}

// ============================================================
// Mul — product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// DivOf returns a / b.
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

// Simplify flattens nested products, folds the numeric coefficient to the
// front and merges powers of the same base.
func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	type power struct {
		base Expr
		exp  float64
	}
	coeff := 1.0
	powers := map[string]*power{}
	keys := []string{}
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coeff *= n.v
			continue
		}
		base, exp := f, 1.0
		if p, ok := f.(*Pow); ok {
			if e, ok := p.exp.(*Num); ok {
				base, exp = p.base, e.v
			}
		}
		k := base.String()
		p, seen := powers[k]
		if !seen {
			p = &power{base: base}
			powers[k] = p
			keys = append(keys, k)
		}
		p.exp += exp
	}
	if coeff == 0 {
		return N(0)
	}

	sort.Strings(keys)
	others := make([]Expr, 0, len(keys))
	renest := false
	for _, k := range keys {
		p := powers[k]
		if p.exp == 0 {
			continue
		}
		f := PowOf(p.base, N(p.exp))
		switch f.(type) {
		case *Num, *Mul:
			renest = true
		}
		others = append(others, f)
	}
	if renest {
		return MulOf(append([]Expr{N(coeff)}, others...)...)
	}
	switch {
	case len(others) == 0:
		return N(coeff)
	case coeff == 1 && len(others) == 1:
		return others[0]
	case coeff == 1:
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{N(coeff)}, others...)}
}

func (m *Mul) String() string {
	prefix, factors := m.signedFactors()
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = f.String()
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return prefix + strings.Join(parts, "*")
}

// LaTeX moves factors with negative numeric exponents into a denominator.
func (m *Mul) LaTeX() string {
	prefix, factors := m.signedFactors()
	var num, den []string
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if e, ok := p.exp.(*Num); ok && e.v < 0 {
				den = append(den, latexFactor(PowOf(p.base, N(-e.v))))
				continue
			}
		}
		num = append(num, latexFactor(f))
	}
	if len(den) == 0 {
		return prefix + strings.Join(num, " ")
	}
	if len(num) == 0 {
		num = []string{"1"}
	}
	return prefix + `\frac{` + strings.Join(num, " ") + "}{" + strings.Join(den, " ") + "}"
}

// signedFactors drops a unit coefficient, returning "-" for -1.
func (m *Mul) signedFactors() (string, []Expr) {
	if n, ok := m.factors[0].(*Num); ok {
		switch n.v {
		case 1:
			return "", m.factors[1:]
		case -1:
			return "-", m.factors[1:]
		}
	}
	return "", m.factors
}

func latexFactor(f Expr) string {
	if _, isAdd := f.(*Add); isAdd {
		return `\left(` + f.LaTeX() + `\right)`
	}
	return f.LaTeX()
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

// Diff applies the product rule.
func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		factors := make([]Expr, 0, len(m.factors))
		factors = append(factors, fi.Diff(varName))
		for j, fj := range m.factors {
			if j != i {
				factors = append(factors, fj)
			}
		}
		terms[i] = MulOf(factors...)
	}
	return AddOf(terms...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalAll(m.factors, o.factors)
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "mul", "factors": listJSON(m.factors)}
}
func (m *Mul) Factors() []Expr { return append([]Expr(nil), m.factors...) }

func (m *Mul) compile(index map[string]int) (evalFunc, error) {
	fns, err := compileAll(m.factors, index)
	if err != nil {
		return nil, err
	}
	return func(vals []float64) float64 {
		prod := 1.0
		for _, f := range fns {
			prod *= f(vals)
		}
		return prod
	}, nil
}

// ============================================================
// Pow — base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func SqrtOf(arg Expr) Expr { return PowOf(arg, N(0.5)) }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if e, ok := exp.(*Num); ok {
		switch e.v {
		case 0:
			return N(1)
		case 1:
			return base
		}
		if b, ok := base.(*Num); ok {
			if r := math.Pow(b.v, e.v); !math.IsNaN(r) && !math.IsInf(r, 0) {
				return N(r)
			}
		}
		// (b^k)^n = b^(k*n) only holds for integer n.
		if inner, ok := base.(*Pow); ok && e.v == math.Trunc(e.v) {
			return PowOf(inner.base, MulOf(inner.exp, e))
		}
	}
	if b, ok := base.(*Num); ok && b.v == 1 {
		return N(1)
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if b.v < 0 {
			baseStr = "(" + baseStr + ")"
		}
	}
	expStr := p.exp.String()
	switch e := p.exp.(type) {
	case *Sym:
	case *Num:
		if e.v < 0 {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if e, ok := p.exp.(*Num); ok {
		if e.v == 0.5 {
			return `\sqrt{` + p.base.LaTeX() + "}"
		}
		if e.v < 0 {
			return `\frac{1}{` + PowOf(p.base, N(-e.v)).LaTeX() + "}"
		}
	}
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = `\left(` + baseStr + `\right)`
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if _, ok := p.exp.(*Num); ok {
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du)
	}
	if _, ok := p.base.(*Num); ok {
		return MulOf(p, LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(p, AddOf(logTerm, divTerm))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr     { return p.base }
func (p *Pow) Exponent() Expr { return p.exp }

func (p *Pow) compile(index map[string]int) (evalFunc, error) {
	base, err := p.base.compile(index)
	if err != nil {
		return nil, err
	}
	if e, ok := p.exp.(*Num); ok && e.v == 2 {
		return func(vals []float64) float64 {
			b := base(vals)
			return b * b
		}, nil
	}
	exp, err := p.exp.compile(index)
	if err != nil {
		return nil, err
	}
	return func(vals []float64) float64 { return math.Pow(base(vals), exp(vals)) }, nil
}

// ============================================================
// helpers
// ============================================================

// splitCoeff returns (c, rest) with e == c*rest. rest is nil when e is a number.
func splitCoeff(e Expr) (float64, Expr) {
	switch v := e.(type) {
	case *Num:
		return v.v, nil
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok {
			rest := v.factors[1:]
			if len(rest) == 1 {
				return c.v, rest[0]
			}
			return c.v, &Mul{factors: rest}
		}
	}
	return 1, e
}

func scale(c float64, rest Expr) Expr {
	switch {
	case rest == nil:
		return N(c)
	case c == 1:
		return rest
	}
	return MulOf(N(c), rest)
}

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func listJSON(es []Expr) []map[string]interface{} {
	out := make([]map[string]interface{}, len(es))
	for i, e := range es {
		out[i] = e.toJSON()
	}
	return out
}

func compileAll(es []Expr, index map[string]int) ([]evalFunc, error) {
	fns := make([]evalFunc, len(es))
	for i, e := range es {
		f, err := e.compile(index)
		if err != nil {
			return nil, err
		}
		fns[i] = f
	}
	return fns, nil
}
