package gosymopt

import (
	"fmt"
	"math"

	"github.com/njchilds90/gosymopt/symbolic"
)

// Bound is a closed interval [Lower, Upper]. Either end may be infinite.
type Bound struct {
	Lower float64
	Upper float64
}

// Unbounded returns (-inf, inf).
func Unbounded() Bound { return Bound{Lower: math.Inf(-1), Upper: math.Inf(1)} }

func (b Bound) validate() error {
	if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || b.Lower > b.Upper {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidBound, b.Lower, b.Upper)
	}
	return nil
}

// Contains reports whether v lies in the closed interval.
func (b Bound) Contains(v float64) bool { return v >= b.Lower && v <= b.Upper }

// Clamp returns v limited to the interval.
func (b Bound) Clamp(v float64) float64 { return math.Max(b.Lower, math.Min(b.Upper, v)) }

func (b Bound) String() string {
	return "[" + symbolic.N(b.Lower).String() + ", " + symbolic.N(b.Upper).String() + "]"
}

// LaTeX renders the interval with \infty for infinite ends.
func (b Bound) LaTeX() string {
	return `\left[` + symbolic.N(b.Lower).LaTeX() + ", " + symbolic.N(b.Upper).LaTeX() + `\right]`
}

// Variable is a named, bounded scalar. An active variable is a degree of
// freedom of the solver; a passive one (a parameter) is held at its current
// value.
//
// Evaluation bindings are keyed by Name. Expressions refer to the variable
// through Symbol, whose name may differ.
type Variable struct {
	name         string
	sym          *symbolic.Sym
	value        float64
	defaultValue float64
	bound        Bound
	active       bool
}

// VariableOption configures a variable at registration.
type VariableOption func(*Variable)

// Value sets the starting (and default) value. Zero when omitted.
func Value(v float64) VariableOption {
	return func(x *Variable) {
		x.value = v
		x.defaultValue = v
	}
}

// Bounds sets the interval. Unbounded when omitted.
func Bounds(lower, upper float64) VariableOption {
	return func(x *Variable) { x.bound = Bound{Lower: lower, Upper: upper} }
}

// Symbol sets the display symbol. Defaults to the variable name.
func Symbol(display string) VariableOption {
	return func(x *Variable) { x.sym = symbolic.S(display) }
}

func Active() VariableOption  { return func(x *Variable) { x.active = true } }
func Passive() VariableOption { return func(x *Variable) { x.active = false } }

func newVariable(name string, active bool, opts []VariableOption) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	v := &Variable{name: name, sym: symbolic.S(name), bound: Unbounded(), active: active}
	for _, opt := range opts {
		opt(v)
	}
	if v.sym.Name() == "" {
		return nil, fmt.Errorf("%w: empty symbol for %q", ErrInvalidName, name)
	}
	if err := v.bound.validate(); err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	return v, nil
}

func (v *Variable) Name() string          { return v.name }
func (v *Variable) Symbol() *symbolic.Sym { return v.sym }
func (v *Variable) Value() float64        { return v.value }
func (v *Variable) DefaultValue() float64 { return v.defaultValue }
func (v *Variable) Bound() Bound          { return v.bound }
func (v *Variable) IsActive() bool        { return v.active }

func (v *Variable) SetValue(value float64)        { v.value = value }
func (v *Variable) SetDefaultValue(value float64) { v.defaultValue = value }

// ResetValue restores the value given at registration (or the last
// SetDefaultValue).
func (v *Variable) ResetValue() { v.value = v.defaultValue }

func (v *Variable) SetBound(lower, upper float64) error {
	b := Bound{Lower: lower, Upper: upper}
	if err := b.validate(); err != nil {
		return fmt.Errorf("variable %q: %w", v.name, err)
	}
	v.bound = b
	return nil
}

func (v *Variable) SetActive()  { v.active = true }
func (v *Variable) SetPassive() { v.active = false }

func (v *Variable) String() string {
	return fmt.Sprintf("(%s, val:%g, def_val:%g, bound:%s, active:%t)",
		v.name, v.value, v.defaultValue, v.bound, v.active)
}
