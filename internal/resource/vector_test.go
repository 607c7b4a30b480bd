package resource

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_TwelveResources(t *testing.T) {
	assert.Len(t, All, 12)

	seen := make(map[Name]bool)
	for _, n := range All {
		assert.False(t, seen[n], "duplicate resource %s", n)
		seen[n] = true
		assert.True(t, Known(n))
	}
	assert.False(t, Known("plutonium"))
}

func TestVector_GetSet_RoundTrip(t *testing.T) {
	var v Vector
	for i, n := range All {
		v.Set(n, float64(i+1))
	}
	for i, n := range All {
		assert.Equal(t, float64(i+1), v.Get(n), "resource %s", n)
	}
}

func TestVector_Add(t *testing.T) {
	a := Vector{Money: 100, Steel: 5}
	b := Vector{Money: 50, Food: 2.5}

	a.Add(b)

	assert.Equal(t, 150.0, a.Money)
	assert.Equal(t, 5.0, a.Steel)
	assert.Equal(t, 2.5, a.Food)
}

func TestVector_AddScaled_NegativeSign(t *testing.T) {
	a := Vector{Steel: 10}
	a.AddScaled(Vector{Steel: 4}, -1)

	assert.Equal(t, 6.0, a.Steel)
}

func TestVector_IsZero(t *testing.T) {
	assert.True(t, Vector{}.IsZero())
	assert.False(t, Vector{Coal: 0.001}.IsZero())
}

func TestVector_Valid(t *testing.T) {
	assert.True(t, Vector{Money: 1e12}.Valid())
	assert.False(t, Vector{Oil: math.NaN()}.Valid())
	assert.False(t, Vector{Uranium: math.Inf(1)}.Valid())
}

func TestVector_JSONFieldNames(t *testing.T) {
	// Wire compatibility: amounts decode straight off upstream field names.
	raw := `{"money":500,"steel":10,"food":1.5}`

	var v Vector
	require.NoError(t, json.Unmarshal([]byte(raw), &v))

	assert.Equal(t, 500.0, v.Money)
	assert.Equal(t, 10.0, v.Steel)
	assert.Equal(t, 1.5, v.Food)
	assert.Equal(t, 0.0, v.Coal)
}
