package symbolic

import (
	"fmt"
	"math"
	"strings"
)

// ============================================================
// Func — elementary function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

var elementary = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"exp":  math.Exp,
	"ln":   math.Log,
	"abs":  math.Abs,
	"asin": math.Asin,
	"acos": math.Acos,
	"atan": math.Atan,
	"sinh": math.Sinh,
	"cosh": math.Cosh,
	"tanh": math.Tanh,
	"sign": sign,
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// IsElementary reports whether name is a function FuncOf accepts.
func IsElementary(name string) bool {
	_, ok := elementary[name]
	return ok
}

// FuncOf applies the elementary function name to arg.
func FuncOf(name string, arg Expr) (Expr, error) {
	if !IsElementary(name) {
		return nil, fmt.Errorf("symbolic: unknown function %q", name)
	}
	return funcOf(name, arg), nil
}

func funcOf(name string, arg Expr) Expr { return (&Func{name: name, arg: arg}).Simplify() }

func SinOf(arg Expr) Expr  { return funcOf("sin", arg) }
func CosOf(arg Expr) Expr  { return funcOf("cos", arg) }
func TanOf(arg Expr) Expr  { return funcOf("tan", arg) }
func ExpOf(arg Expr) Expr  { return funcOf("exp", arg) }
func LnOf(arg Expr) Expr   { return funcOf("ln", arg) }
func AbsOf(arg Expr) Expr  { return funcOf("abs", arg) }
func AsinOf(arg Expr) Expr { return funcOf("asin", arg) }
func AcosOf(arg Expr) Expr { return funcOf("acos", arg) }
func AtanOf(arg Expr) Expr { return funcOf("atan", arg) }
func SinhOf(arg Expr) Expr { return funcOf("sinh", arg) }
func CoshOf(arg Expr) Expr { return funcOf("cosh", arg) }
func TanhOf(arg Expr) Expr { return funcOf("tanh", arg) }
func SignOf(arg Expr) Expr { return funcOf("sign", arg) }

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	if n, ok := arg.(*Num); ok {
		if v := elementary[f.name](n.v); !math.IsNaN(v) && !math.IsInf(v, 0) {
			return N(v)
		}
	}
	if inner, ok := arg.(*Func); ok {
		switch {
		case f.name == "ln" && inner.name == "exp", f.name == "exp" && inner.name == "ln":
			return inner.arg
		case f.name == "abs" && inner.name == "abs":
			return inner
		}
	}
	if f.name == "abs" {
		if c, rest := splitCoeff(arg); c < 0 && rest != nil {
			return AbsOf(scale(-c, rest))
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	arg := f.arg.LaTeX()
	switch f.name {
	case "sin", "cos", "tan", "exp", "ln", "sinh", "cosh", "tanh":
		return `\` + f.name + `\left(` + arg + `\right)`
	case "asin", "acos", "atan":
		return `\arc` + f.name[1:] + `\left(` + arg + `\right)`
	case "abs":
		return `\left|` + arg + `\right|`
	}
	return `\operatorname{` + f.name + `}\left(` + arg + `\right)`
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value))
}

// Diff applies the chain rule with the outer derivative from a fixed table.
func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = Neg(SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(f.arg), N(2)))
	case "exp":
		outer = ExpOf(f.arg)
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "abs":
		outer = SignOf(f.arg)
	case "asin":
		outer = PowOf(Minus(N(1), PowOf(f.arg, N(2))), N(-0.5))
	case "acos":
		outer = Neg(PowOf(Minus(N(1), PowOf(f.arg, N(2))), N(-0.5)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = Minus(N(1), PowOf(TanhOf(f.arg), N(2)))
	case "sign":
		outer = N(0)
	}
	return MulOf(outer, du)
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

func (f *Func) compile(index map[string]int) (evalFunc, error) {
	arg, err := f.arg.compile(index)
	if err != nil {
		return nil, err
	}
	fn := elementary[f.name]
	return func(vals []float64) float64 { return fn(arg(vals)) }, nil
}

// ============================================================
// Apply — undefined function applied to arguments
// ============================================================

// Apply stands for a function known only by name, such as a user-supplied
// Go callback. It prints and substitutes like any expression but has no
// numeric form.
type Apply struct {
	name string
	args []Expr
}

func ApplyOf(name string, args ...Expr) *Apply {
	return &Apply{name: name, args: append([]Expr(nil), args...)}
}

func (a *Apply) Name() string { return a.name }
func (a *Apply) Args() []Expr { return append([]Expr(nil), a.args...) }

func (a *Apply) Simplify() Expr {
	args := make([]Expr, len(a.args))
	for i, arg := range a.args {
		args[i] = arg.Simplify()
	}
	return &Apply{name: a.name, args: args}
}

func (a *Apply) String() string {
	parts := make([]string, len(a.args))
	for i, arg := range a.args {
		parts[i] = arg.String()
	}
	return a.name + "(" + strings.Join(parts, ", ") + ")"
}

func (a *Apply) LaTeX() string {
	parts := make([]string, len(a.args))
	for i, arg := range a.args {
		parts[i] = arg.LaTeX()
	}
	name := a.name
	if len([]rune(name)) > 1 {
		name = `\operatorname{` + name + `}`
	}
	return name + `\left(` + strings.Join(parts, ", ") + `\right)`
}

func (a *Apply) Sub(varName string, value Expr) Expr {
	args := make([]Expr, len(a.args))
	for i, arg := range a.args {
		args[i] = arg.Sub(varName, value)
	}
	return &Apply{name: a.name, args: args}
}

// Diff returns an unevaluated partial derivative d<name>/d<var>.
func (a *Apply) Diff(varName string) Expr {
	if _, free := FreeSymbols(a)[varName]; !free {
		return N(0)
	}
	return &Apply{name: "d" + a.name + "/d" + varName, args: a.args}
}

func (a *Apply) Equal(other Expr) bool {
	o, ok := other.(*Apply)
	return ok && a.name == o.name && equalAll(a.args, o.args)
}

func (a *Apply) exprType() string { return "apply" }
func (a *Apply) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "apply", "name": a.name, "args": listJSON(a.args)}
}

func (a *Apply) compile(map[string]int) (evalFunc, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotNumeric, a.String())
}

// ============================================================
// Fixed — symbol pinned to a value
// ============================================================

// Fixed is a symbol held at a constant. It evaluates as the constant but
// keeps its name in printed output, e.g. "y=5".
type Fixed struct {
	sym   *Sym
	value float64
}

func Pin(sym *Sym, value float64) *Fixed { return &Fixed{sym: sym, value: value} }

func (f *Fixed) Symbol() *Sym          { return f.sym }
func (f *Fixed) Value() float64        { return f.value }
func (f *Fixed) Simplify() Expr        { return f }
func (f *Fixed) String() string        { return f.sym.String() + "=" + formatFloat(f.value) }
func (f *Fixed) LaTeX() string         { return f.sym.LaTeX() + "=" + N(f.value).LaTeX() }
func (f *Fixed) Sub(string, Expr) Expr { return f }
func (f *Fixed) Diff(string) Expr      { return N(0) }
func (f *Fixed) exprType() string      { return "fixed" }

func (f *Fixed) Equal(other Expr) bool {
	o, ok := other.(*Fixed)
	return ok && f.sym.Equal(o.sym) && f.value == o.value
}

func (f *Fixed) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "fixed", "name": f.sym.name, "value": N(f.value).toJSON()["value"]}
}

func (f *Fixed) compile(map[string]int) (evalFunc, error) {
	v := f.value
	return func([]float64) float64 { return v }, nil
}
