package symbolic_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gosymopt/symbolic"
)

func TestJSON_RoundTrip(t *testing.T) {
	exprs := []symbolic.Expr{
		rosenbrock(),
		symbolic.DivOf(symbolic.LnOf(x), symbolic.CosOf(y)),
		symbolic.ApplyOf("f", x, symbolic.Pin(y, 5)),
	}
	for _, e := range exprs {
		t.Run(e.String(), func(t *testing.T) {
			s, err := symbolic.ToJSON(e)
			require.NoError(t, err)
			back, err := symbolic.ParseJSON([]byte(s))
			require.NoError(t, err)
			assert.True(t, e.Equal(back), "got %s", back)

			direct, err := symbolic.FromJSON(symbolic.ToMap(e))
			require.NoError(t, err)
			assert.True(t, e.Equal(direct))
		})
	}
}

func TestFromJSON_Numbers(t *testing.T) {
	cases := map[string]float64{
		`{"type":"num","value":3}`:      3,
		`{"type":"num","value":"1e-3"}`: 1e-3,
		`{"type":"num","value":"-inf"}`: math.Inf(-1),
	}
	for src, want := range cases {
		e, err := symbolic.ParseJSON([]byte(src))
		require.NoError(t, err, src)
		n, ok := e.(*symbolic.Num)
		require.True(t, ok)
		assert.Equal(t, want, n.Value())
	}

	// YAML decoders produce ints.
	e, err := symbolic.FromJSON(map[string]interface{}{"type": "num", "value": 7})
	require.NoError(t, err)
	assert.Equal(t, "7", e.String())
}

func TestFromJSON_Simplifies(t *testing.T) {
	src := `{"type":"add","terms":[{"type":"sym","name":"x"},{"type":"sym","name":"x"}]}`
	e, err := symbolic.ParseJSON([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "2*x", e.String())
}

func TestFromJSON_Errors(t *testing.T) {
	cases := []string{
		`{}`,
		`{"type":"bogus"}`,
		`{"type":"sym"}`,
		`{"type":"num","value":"abc"}`,
		`{"type":"num","value":true}`,
		`{"type":"add","terms":{}}`,
		`{"type":"add","terms":[1]}`,
		`{"type":"pow","base":{"type":"sym","name":"x"}}`,
		`{"type":"func","name":"gamma","arg":{"type":"sym","name":"x"}}`,
		`[1,2]`,
	}
	for _, src := range cases {
		_, err := symbolic.ParseJSON([]byte(src))
		assert.Error(t, err, src)
	}
	_, err := symbolic.FromJSON(nil)
	assert.Error(t, err)
}
