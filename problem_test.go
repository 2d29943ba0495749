package gosymopt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gosymopt"
	"github.com/njchilds90/gosymopt/symbolic"
)

func TestPartition_IsDisjointUnion(t *testing.T) {
	p := gosymopt.New()
	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := p.AddVariable(name)
		require.NoError(t, err)
	}
	b, _ := p.Variable("b")
	d, _ := p.Variable("d")
	b.SetPassive()
	d.SetPassive()

	check := func() {
		active, passive := p.ActiveVariables(), p.PassiveVariables()
		seen := map[string]int{}
		for _, v := range active {
			seen[v.Name()]++
		}
		for _, v := range passive {
			seen[v.Name()]++
		}
		assert.Len(t, seen, len(p.Variables()))
		for name, n := range seen {
			assert.Equal(t, 1, n, name)
		}
	}
	check()
	assert.Equal(t, []string{"a", "c"}, names(p.ActiveVariables()))

	b.SetActive()
	check()
	assert.Equal(t, []string{"a", "b", "c"}, names(p.ActiveVariables()))
	assert.Equal(t, []string{"d"}, names(p.PassiveVariables()))
}

func TestLookup(t *testing.T) {
	p := gosymopt.New()
	x, _ := p.AddVariable("x")

	got, err := p.Lookup("x")
	require.NoError(t, err)
	assert.Same(t, x, got)

	_, err = p.Lookup("nope")
	assert.ErrorIs(t, err, gosymopt.ErrUnknownVariable)

	_, ok := p.Variable("nope")
	assert.False(t, ok)
}

func TestOptType(t *testing.T) {
	p := gosymopt.New()
	assert.Equal(t, gosymopt.Minimize, p.OptType())

	require.NoError(t, p.SetOptType(gosymopt.Maximize))
	assert.Equal(t, gosymopt.Maximize, p.OptType())

	err := p.SetOptType("sideways")
	assert.ErrorIs(t, err, gosymopt.ErrInvalidOptType)
	assert.Equal(t, gosymopt.Maximize, p.OptType())

	typ, err := gosymopt.ParseOptType("")
	require.NoError(t, err)
	assert.Equal(t, gosymopt.Minimize, typ)
}

func TestConstraints_ActiveFlag(t *testing.T) {
	p := gosymopt.New()
	x, _ := p.AddVariable("x")

	c1, err := p.AddConstraintExpr(x.Symbol(), gosymopt.GreaterEqual)
	require.NoError(t, err)
	c2, err := p.AddConstraintExpr(symbolic.Minus(x.Symbol(), symbolic.N(3)), gosymopt.LessEqual, gosymopt.ConstraintPassive())
	require.NoError(t, err)

	assert.True(t, c1.IsActive())
	assert.False(t, c2.IsActive())
	assert.Len(t, p.Constraints(), 2)
	assert.Equal(t, []*gosymopt.Constraint{c1}, p.ActiveConstraints())
	assert.Equal(t, []*gosymopt.Constraint{c2}, p.PassiveConstraints())

	c2.SetActive()
	c1.SetPassive()
	assert.Equal(t, []*gosymopt.Constraint{c2}, p.ActiveConstraints())

	_, err = p.AddConstraintExpr(x.Symbol(), "~")
	assert.ErrorIs(t, err, gosymopt.ErrInvalidRelation)
	assert.Len(t, p.Constraints(), 2)
}

func TestConstraints_NoAutoJacobian(t *testing.T) {
	p := gosymopt.New()
	x, _ := p.AddVariable("x")
	c, err := p.AddConstraintExpr(x.Symbol(), gosymopt.Greater, gosymopt.NoAutoJacobian())
	require.NoError(t, err)

	jac, err := c.Jacobian(p.ActiveVariables(), p.Variables())
	require.NoError(t, err)
	assert.Nil(t, jac)
}

func TestExprTerm_SharedBetweenProblems(t *testing.T) {
	shared := gosymopt.NewExprTerm(symbolic.S("m"), true)

	p := gosymopt.New()
	_, _ = p.AddVariable("mass", gosymopt.Symbol("m"))
	p.SetObjective(shared)
	c, err := p.AddConstraint(shared, gosymopt.GreaterEqual, gosymopt.NoAutoJacobian())
	require.NoError(t, err)

	q := gosymopt.New()
	_, _ = q.AddVariable("m")
	q.SetObjective(shared)

	v, err := p.Objective().Evaluate(map[string]float64{"mass": 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
	v, err = q.Objective().Evaluate(map[string]float64{"m": 4})
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	assert.True(t, shared.AutoJacobian())
	assert.False(t, c.Term.(*gosymopt.ExprTerm).AutoJacobian())
}

func TestConstraintFunc_DefaultName(t *testing.T) {
	p := gosymopt.New()
	_, _ = p.AddVariable("x")
	c, err := p.AddConstraintFunc(func(v map[string]float64) float64 { return v["x"] }, gosymopt.Equal, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "g(x)", c.Expr().String())
	assert.True(t, c.Relation().IsEquality())
}

func names(vars []*gosymopt.Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name()
	}
	return out
}
