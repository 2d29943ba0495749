package gosymopt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gosymopt"
	"github.com/njchilds90/gosymopt/symbolic"
)

func TestRender(t *testing.T) {
	p := gosymopt.New()
	x, _ := p.AddVariable("x", gosymopt.Bounds(-10, 10))
	y, _ := p.AddParameter("y", gosymopt.Value(5))
	p.SetObjectiveExpr(symbolic.AddOf(x.Symbol(), y.Symbol()), true)
	_, err := p.AddConstraintExpr(symbolic.Minus(x.Symbol(), y.Symbol()), gosymopt.LessEqual)
	require.NoError(t, err)
	_, err = p.AddConstraintExpr(x.Symbol(), gosymopt.Greater, gosymopt.ConstraintPassive())
	require.NoError(t, err)

	out, err := p.Render()
	require.NoError(t, err)

	want := `$$\underset{ x }{ \text{ minimize } }\quad x + 5` +
		`\quad\quad\quad \text{with}\quad \begin{gather} x \in \left[-10, 10\right] \end{gather}` +
		`\\ \text{Subject to}\quad\quad \begin{array}{c} x - 5 \leq 0 \end{array}$$`
	assert.Equal(t, want, out)
}

func TestRender_Maximize(t *testing.T) {
	p := gosymopt.New(gosymopt.WithOptType(gosymopt.Maximize))
	x, _ := p.AddVariable("x")
	y, _ := p.AddVariable("y", gosymopt.Symbol(`\beta`))
	p.SetObjectiveExpr(symbolic.MulOf(x.Symbol(), y.Symbol()), true)

	out, err := p.Render()
	require.NoError(t, err)
	assert.Contains(t, out, `\underset{ x, \beta }{ \text{ maximize } }`)
	assert.Contains(t, out, `\beta \in \left[-\infty, \infty\right]`)
	assert.NotContains(t, out, "Subject to")
}

func TestRender_FuncObjective(t *testing.T) {
	p := gosymopt.New()
	_, _ = p.AddVariable("x")
	_, _ = p.AddParameter("y", gosymopt.Value(5))
	p.SetObjectiveFunc(func(v map[string]float64) float64 { return 0 }, nil, "")

	out, err := p.Render()
	require.NoError(t, err)
	assert.Contains(t, out, `f\left(x, y=5\right)`)
}

func TestRender_NoObjective(t *testing.T) {
	_, err := gosymopt.New().Render()
	assert.ErrorIs(t, err, gosymopt.ErrIncompleteModel)
}

func TestString(t *testing.T) {
	p := gosymopt.New()
	x, _ := p.AddVariable("x", gosymopt.Bounds(0, 1))
	y, _ := p.AddParameter("y", gosymopt.Value(2))
	p.SetObjectiveExpr(symbolic.MulOf(x.Symbol(), y.Symbol()), true)
	_, _ = p.AddConstraintExpr(x.Symbol(), gosymopt.GreaterEqual)

	want := "minimize 2*x\n" +
		"  x in [0, 1]\n" +
		"  y = 2 (fixed)\n" +
		"subject to\n" +
		"  x >= 0\n"
	assert.Equal(t, want, p.String())
}
