package gosymopt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gosymopt"
)

func TestLoadDocument_YAML(t *testing.T) {
	doc, err := gosymopt.LoadDocument("testdata/paraboloid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "min", doc.Sense)
	require.Len(t, doc.Variables, 3)
	assert.Equal(t, "c", doc.Variables[2].Symbol)

	p, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names(p.ActiveVariables()))
	assert.Len(t, p.ActiveConstraints(), 1)

	res, err := p.Solve(gosymopt.Verbose(false))
	require.NoError(t, err)
	assert.InDelta(t, 1, res.X[0], 1e-4)
	assert.InDelta(t, 0, res.F, 1e-6)
	assert.Equal(t, 1.0, res.Values["offset"])
}

func TestLoadDocument_JSON(t *testing.T) {
	doc, err := gosymopt.LoadDocument("testdata/maximize.json")
	require.NoError(t, err)

	p, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, gosymopt.Maximize, p.OptType())

	res, err := p.Solve(gosymopt.Verbose(false))
	require.NoError(t, err)
	assert.InDelta(t, 3, res.X[0], 1e-4)
}

func TestLoadDocument_Missing(t *testing.T) {
	_, err := gosymopt.LoadDocument("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParseDocument_Invalid(t *testing.T) {
	cases := map[string]struct {
		data   string
		format string
	}{
		"no variables":     {`{"objective":{"expr":{"type":"sym","name":"x"}}}`, "json"},
		"bad sense":        {`{"sense":"up","variables":[{"name":"x"}],"objective":{"expr":{"type":"sym","name":"x"}}}`, "json"},
		"unnamed variable": {`{"variables":[{"value":1}],"objective":{"expr":{"type":"sym","name":"x"}}}`, "json"},
		"no objective":     {`{"variables":[{"name":"x"}]}`, "json"},
		"unknown field":    {`{"variables":[{"name":"x"}],"objective":{"expr":{"type":"sym","name":"x"}},"extra":1}`, "json"},
		"constraint type":  {"variables: [{name: x}]\nobjective: {expr: {type: sym, name: x}}\nconstraints: [{expr: {type: sym, name: x}}]\n", "yaml"},
		"bad yaml":         {"variables: [", "yaml"},
		"format":           {`{}`, "toml"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gosymopt.ParseDocument([]byte(tc.data), tc.format)
			assert.Error(t, err)
		})
	}
}

func TestDocument_BuildErrors(t *testing.T) {
	build := func(src string) error {
		doc, err := gosymopt.ParseDocument([]byte(src), "yaml")
		require.NoError(t, err)
		_, err = doc.Build()
		return err
	}

	err := build("variables: [{name: x}, {name: x}]\nobjective: {expr: {type: sym, name: x}}\n")
	assert.ErrorIs(t, err, gosymopt.ErrDuplicateName)

	err = build("variables: [{name: x, lower: 3, upper: 1}]\nobjective: {expr: {type: sym, name: x}}\n")
	assert.ErrorIs(t, err, gosymopt.ErrInvalidBound)

	err = build("variables: [{name: x}]\nobjective: {expr: {type: nope}}\n")
	assert.Error(t, err)

	err = build("variables: [{name: x}]\nobjective: {expr: {type: sym, name: x}}\nconstraints: [{type: '!=', expr: {type: sym, name: x}}]\n")
	assert.ErrorIs(t, err, gosymopt.ErrInvalidRelation)

	err = build("variables: [{name: x}]\nobjective: {expr: {type: sym, name: x}}\nsettings: {method: simplex}\n")
	assert.Error(t, err)
}

func TestDocument_AutoJacobianFlag(t *testing.T) {
	doc, err := gosymopt.ParseDocument([]byte(
		"variables: [{name: x, value: 3}]\nobjective:\n  auto_jacobian: false\n  expr: {type: pow, base: {type: sym, name: x}, exp: {type: num, value: 2}}\n"), "yaml")
	require.NoError(t, err)
	p, err := doc.Build()
	require.NoError(t, err)

	term, ok := p.Objective().(*gosymopt.ExprTerm)
	require.True(t, ok)
	assert.False(t, term.AutoJacobian())

	res, err := p.Solve(gosymopt.Verbose(false))
	require.NoError(t, err)
	assert.InDelta(t, 0, res.X[0], 1e-4)
}
