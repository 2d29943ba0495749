package gosymopt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/njchilds90/gosymopt"
	"github.com/njchilds90/gosymopt/symbolic"
)

func sq(e symbolic.Expr) symbolic.Expr { return symbolic.PowOf(e, symbolic.N(2)) }

func TestExprTerm_Evaluate(t *testing.T) {
	x, y := symbolic.S("x"), symbolic.S("y")
	term := gosymopt.NewExprTerm(symbolic.AddOf(sq(x), symbolic.MulOf(symbolic.N(3), y)), true)

	v, err := term.Evaluate(map[string]float64{"x": 2, "y": 1})
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestExprTerm_RecompilesOnNewKeys(t *testing.T) {
	x, y := symbolic.S("x"), symbolic.S("y")
	term := gosymopt.NewExprTerm(symbolic.Minus(x, y), true)

	v, err := term.Evaluate(map[string]float64{"x": 5, "y": 2})
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	// A larger key set compiles a new function instead of reusing the
	// positional one.
	v, err = term.Evaluate(map[string]float64{"a": 100, "x": 5, "y": 2})
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	_, err = term.Evaluate(map[string]float64{"x": 5})
	assert.ErrorIs(t, err, gosymopt.ErrEvaluationKeyMismatch)

	v, err = term.Evaluate(map[string]float64{"x": 1, "y": 4})
	require.NoError(t, err)
	assert.Equal(t, -3.0, v)
}

func TestExprTerm_JacobianMatchesFiniteDifferences(t *testing.T) {
	p := gosymopt.New()
	xv, _ := p.AddVariable("x")
	yv, _ := p.AddVariable("y")
	p.SetObjectiveExpr(symbolic.AddOf(sq(xv.Symbol()), sq(yv.Symbol())), true)

	jac, err := p.Objective().Jacobian(p.ActiveVariables(), p.Variables())
	require.NoError(t, err)
	require.NotNil(t, jac)

	at := []float64{1.5, -0.25}
	got, err := jac(map[string]float64{"x": at[0], "y": at[1]})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, -0.5}, got)

	want := fd.Gradient(nil, func(v []float64) float64 {
		f, err := p.Objective().Evaluate(map[string]float64{"x": v[0], "y": v[1]})
		require.NoError(t, err)
		return f
	}, at, &fd.Settings{Formula: fd.Central})
	assert.InDeltaSlice(t, want, got, 1e-5)
}

func TestExprTerm_JacobianOverActiveOnly(t *testing.T) {
	p := gosymopt.New()
	xv, _ := p.AddVariable("x")
	yv, _ := p.AddParameter("y", gosymopt.Value(4))
	p.SetObjectiveExpr(symbolic.MulOf(xv.Symbol(), yv.Symbol()), true)

	jac, err := p.Objective().Jacobian(p.ActiveVariables(), p.Variables())
	require.NoError(t, err)
	got, err := jac(map[string]float64{"x": 2, "y": 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, got)

	_, err = jac(map[string]float64{"x": 2})
	assert.ErrorIs(t, err, gosymopt.ErrEvaluationKeyMismatch)
}

func TestExprTerm_NoAutoJacobian(t *testing.T) {
	term := gosymopt.NewExprTerm(symbolic.S("x"), false)
	jac, err := term.Jacobian(nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, jac)
}

func TestExprTerm_ResolvesDisplaySymbols(t *testing.T) {
	p := gosymopt.New()
	mass, _ := p.AddVariable("mass", gosymopt.Symbol("m"))
	p.SetObjectiveExpr(sq(mass.Symbol()), true)

	v, err := p.Objective().Evaluate(map[string]float64{"mass": 3})
	require.NoError(t, err)
	assert.Equal(t, 9.0, v)
}

func TestExprTerm_ReduceForDisplay(t *testing.T) {
	p := gosymopt.New()
	x, _ := p.AddVariable("x")
	y, _ := p.AddParameter("y", gosymopt.Value(5))
	p.SetObjectiveExpr(symbolic.AddOf(x.Symbol(), y.Symbol()), true)

	got := p.Objective().ReduceForDisplay(p.PassiveVariables())
	assert.Equal(t, "x + 5", got.String())
	// the stored expression is untouched
	assert.Equal(t, "x + y", p.Objective().Expr().String())
}

func TestFuncTerm_Display(t *testing.T) {
	p := gosymopt.New()
	_, _ = p.AddVariable("x")
	_, _ = p.AddParameter("y", gosymopt.Value(5))
	p.SetObjectiveFunc(func(v map[string]float64) float64 { return v["x"] + v["y"] }, nil, "")

	assert.Equal(t, "f(x, y)", p.Objective().Expr().String())
	assert.Equal(t, "f(x, y=5)", p.Objective().ReduceForDisplay(p.PassiveVariables()).String())
}

func TestFuncTerm_GradientLength(t *testing.T) {
	p := gosymopt.New()
	_, _ = p.AddVariable("x")
	_, _ = p.AddVariable("y")
	p.SetObjectiveFunc(
		func(v map[string]float64) float64 { return v["x"] * v["y"] },
		func(v map[string]float64) []float64 { return []float64{v["y"]} },
		"cost",
	)

	jac, err := p.Objective().Jacobian(p.ActiveVariables(), p.Variables())
	require.NoError(t, err)
	_, err = jac(map[string]float64{"x": 1, "y": 2})
	assert.ErrorIs(t, err, gosymopt.ErrGradientLength)
}

func TestParseRelation(t *testing.T) {
	for _, s := range []string{"<", ">", "<=", ">=", "="} {
		r, err := gosymopt.ParseRelation(s)
		require.NoError(t, err)
		assert.Equal(t, gosymopt.Relation(s), r)
	}
	r, err := gosymopt.ParseRelation("==")
	require.NoError(t, err)
	assert.True(t, r.IsEquality())

	_, err = gosymopt.ParseRelation("!=")
	assert.ErrorIs(t, err, gosymopt.ErrInvalidRelation)
	assert.Equal(t, `\leq`, gosymopt.LessEqual.LaTeX())
}
