package crossdomain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPctChange(t *testing.T) {
	nan := math.NaN()

	t.Run("first period is zero", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0.5}, pctChange([]float64{100, 150}))
	})

	t.Run("gaps are carried forward", func(t *testing.T) {
		got := pctChange([]float64{100, nan, 110})
		require.Len(t, got, 3)
		assert.Equal(t, 0.0, got[0])
		assert.Equal(t, 0.0, got[1])
		assert.InDelta(t, 0.10, got[2], 1e-9)
	})

	t.Run("division by zero counts as no change", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0, 0}, pctChange([]float64{0, 0, 5}))
	})

	t.Run("leading gaps stay zero", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0, 0}, pctChange([]float64{nan, nan, 7}))
	})
}

func TestGrowthFlags(t *testing.T) {
	ups, downs := growth([]float64{100, 120, 110, 90}, 0.10, -0.05)

	assert.Equal(t, []bool{false, true, false, false}, ups)
	assert.Equal(t, []bool{false, false, true, true}, downs)
}

func TestCoincident_UsesSharedWindow(t *testing.T) {
	a := []bool{true, true, true, true}
	b := []bool{false, true, true}

	assert.Equal(t, 2, coincident(a, b))
	assert.Equal(t, 0, coincident())
}

func TestFfillAndPadTo(t *testing.T) {
	nan := math.NaN()

	filled := ffill([]float64{nan, 2, nan, nan, 5})
	assert.True(t, math.IsNaN(filled[0]))
	assert.Equal(t, []float64{2, 2, 2, 5}, filled[1:])

	padded := padTo([]float64{1, nan}, 4)
	require.Len(t, padded, 4)
	assert.Equal(t, 1.0, padded[0])
	assert.True(t, math.IsNaN(padded[1]))
	assert.Equal(t, []float64{0, 0}, padded[2:])

	assert.Equal(t, []float64{1, 2}, padTo([]float64{1, 2, 3}, 2))
}

func TestSumValid(t *testing.T) {
	nan := math.NaN()

	sum, ok := sumValid([]float64{1, nan, 2})
	assert.True(t, ok)
	assert.Equal(t, 3.0, sum)

	_, ok = sumValid([]float64{nan, nan})
	assert.False(t, ok)
}

func TestPairCorr(t *testing.T) {
	nan := math.NaN()

	t.Run("perfect inverse relation", func(t *testing.T) {
		corr := pairCorr([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
		assert.InDelta(t, -1.0, corr, 1e-9)
	})

	t.Run("pairs with gaps are dropped", func(t *testing.T) {
		corr := pairCorr([]float64{1, nan, 3, 4}, []float64{2, 100, 6, 8})
		assert.InDelta(t, 1.0, corr, 1e-9)
	})

	t.Run("constant side is undefined", func(t *testing.T) {
		assert.True(t, math.IsNaN(pairCorr([]float64{1, 1, 1}, []float64{1, 2, 3})))
	})

	t.Run("single pair is undefined", func(t *testing.T) {
		assert.True(t, math.IsNaN(pairCorr([]float64{1}, []float64{2})))
	})
}
