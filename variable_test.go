package gosymopt_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gosymopt"
)

func TestAddVariable_Defaults(t *testing.T) {
	p := gosymopt.New()
	v, err := p.AddVariable("x")
	require.NoError(t, err)

	assert.Equal(t, "x", v.Name())
	assert.Equal(t, "x", v.Symbol().Name())
	assert.Equal(t, 0.0, v.Value())
	assert.True(t, v.IsActive())
	assert.True(t, math.IsInf(v.Bound().Lower, -1))
	assert.True(t, math.IsInf(v.Bound().Upper, 1))
}

func TestAddVariable_Options(t *testing.T) {
	p := gosymopt.New()
	v, err := p.AddVariable("mass", gosymopt.Value(2), gosymopt.Bounds(0, 10), gosymopt.Symbol("m"), gosymopt.Passive())
	require.NoError(t, err)

	assert.Equal(t, "m", v.Symbol().Name())
	assert.Equal(t, 2.0, v.Value())
	assert.Equal(t, 2.0, v.DefaultValue())
	assert.Equal(t, gosymopt.Bound{Lower: 0, Upper: 10}, v.Bound())
	assert.False(t, v.IsActive())
	assert.Equal(t, "(mass, val:2, def_val:2, bound:[0, 10], active:false)", v.String())
}

func TestAddParameter_IsPassive(t *testing.T) {
	p := gosymopt.New()
	v, err := p.AddParameter("k", gosymopt.Value(3))
	require.NoError(t, err)
	assert.False(t, v.IsActive())

	w, err := p.AddParameter("w", gosymopt.Active())
	require.NoError(t, err)
	assert.True(t, w.IsActive())
}

func TestAddVariable_Rejects(t *testing.T) {
	p := gosymopt.New()
	_, err := p.AddVariable("x")
	require.NoError(t, err)

	_, err = p.AddVariable("x")
	assert.ErrorIs(t, err, gosymopt.ErrDuplicateName)

	_, err = p.AddVariable("other", gosymopt.Symbol("x"))
	assert.ErrorIs(t, err, gosymopt.ErrDuplicateName)

	_, err = p.AddVariable("")
	assert.ErrorIs(t, err, gosymopt.ErrInvalidName)

	_, err = p.AddVariable("y", gosymopt.Bounds(1, 0))
	assert.ErrorIs(t, err, gosymopt.ErrInvalidBound)

	assert.Len(t, p.Variables(), 1)
}

func TestVariable_SetBoundRoundTrip(t *testing.T) {
	p := gosymopt.New()
	v, _ := p.AddVariable("x")

	require.NoError(t, v.SetBound(-2, 7))
	assert.Equal(t, gosymopt.Bound{Lower: -2, Upper: 7}, v.Bound())

	err := v.SetBound(3, math.NaN())
	assert.ErrorIs(t, err, gosymopt.ErrInvalidBound)
	assert.Equal(t, gosymopt.Bound{Lower: -2, Upper: 7}, v.Bound())
}

func TestVariable_ResetValue(t *testing.T) {
	p := gosymopt.New()
	v, _ := p.AddVariable("x", gosymopt.Value(1))
	v.SetValue(4)
	assert.Equal(t, 4.0, v.Value())
	v.ResetValue()
	assert.Equal(t, 1.0, v.Value())

	v.SetDefaultValue(9)
	v.ResetValue()
	assert.Equal(t, 9.0, v.Value())
}

func TestBound(t *testing.T) {
	b := gosymopt.Bound{Lower: -1, Upper: 1}
	assert.True(t, b.Contains(1))
	assert.False(t, b.Contains(1.5))
	assert.Equal(t, -1.0, b.Clamp(-3))
	assert.Equal(t, `\left[-\infty, \infty\right]`, gosymopt.Unbounded().LaTeX())
	assert.Equal(t, "[-inf, inf]", gosymopt.Unbounded().String())
	assert.Equal(t, "[0, inf]", gosymopt.Bound{Lower: 0, Upper: math.Inf(1)}.String())
}
