package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(ptrs []*float64) []interface{} {
	out := make([]interface{}, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			out[i] = nil
		} else {
			out[i] = math.Round(*p*1e9) / 1e9
		}
	}
	return out
}

func TestTrailingSMA(t *testing.T) {
	prices := []float64{100, 101, 99, 102, 103, 101, 104, 105}

	sma3 := TrailingSMA(prices, 3)
	assert.Equal(t, []interface{}{nil, nil, 100.0, 100.666666667, 101.333333333, 102.0, 102.666666667, 103.333333333}, values(sma3))

	sma6 := TrailingSMA(prices, 6)
	require.Len(t, sma6, 8)
	for i := 0; i < 5; i++ {
		assert.Nil(t, sma6[i], "index %d", i)
	}
	assert.InDelta(t, 101.0, *sma6[5], 1e-9)
	assert.InDelta(t, 101.666666667, *sma6[6], 1e-6)
	assert.InDelta(t, 102.333333333, *sma6[7], 1e-6)
}

func TestTrailingSMA_ShortInput(t *testing.T) {
	assert.Equal(t, []*float64{nil, nil}, TrailingSMA([]float64{1, 2}, 3))
	assert.Empty(t, TrailingSMA(nil, 3))
}

func TestPctChange(t *testing.T) {
	pct := PctChange([]float64{100, 110, 0, 5})
	require.Len(t, pct, 4)
	assert.Nil(t, pct[0])
	assert.InDelta(t, 0.1, *pct[1], 1e-12)
	assert.InDelta(t, -1.0, *pct[2], 1e-12)
	assert.Nil(t, pct[3], "change from zero is undefined")
}

func TestShiftForward(t *testing.T) {
	assert.Equal(t, []interface{}{2.0, 3.0, nil}, values(ShiftForward([]float64{1, 2, 3})))
	assert.Equal(t, []interface{}{nil}, values(ShiftForward([]float64{1})))
}

func TestMeanAbsoluteError(t *testing.T) {
	assert.InDelta(t, 1.5, MeanAbsoluteError([]float64{1, 2}, []float64{2, 4}), 1e-12)
	assert.True(t, math.IsNaN(MeanAbsoluteError(nil, nil)))
}
