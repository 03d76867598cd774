package training

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticLinear(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		f := float64(i)
		x[i] = []float64{
			100 + f,
			math.Sin(f),
			math.Cos(f / 3),
			float64(i%4) * 0.01,
		}
		y[i] = 3 + 2*x[i][0] - x[i][1] + 0.5*x[i][2] + 10*x[i][3]
	}
	return x, y
}

func TestFit_RecoversLinearRelationship(t *testing.T) {
	x, y := syntheticLinear(40)

	m, err := Fit(x, y, 1e-12)
	require.NoError(t, err)

	for i := range x {
		pred, err := m.Predict(x[i])
		require.NoError(t, err)
		assert.InDelta(t, y[i], pred, 1e-6, "row %d", i)
	}

	mae, r2, err := Evaluate(m, x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0, mae, 1e-6)
	assert.InDelta(t, 1, r2, 1e-9)
}

func TestFit_ConstantInputsPredictMean(t *testing.T) {
	x := [][]float64{{5, 5, 5, 0}, {5, 5, 5, 0}, {5, 5, 5, 0}}
	y := []float64{4, 5, 6}

	m, err := Fit(x, y, 1e-6)
	require.NoError(t, err)

	pred, err := m.Predict([]float64{5, 5, 5, 0})
	require.NoError(t, err)
	assert.InDelta(t, 5, pred, 1e-12)
}

func TestFit_SingularWithoutPenalty(t *testing.T) {
	x := [][]float64{{1, 1, 1, 1}, {1, 1, 1, 1}}
	_, err := Fit(x, []float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrSingularSystem)
}

func TestFit_InvalidInput(t *testing.T) {
	_, err := Fit(nil, nil, 1e-6)
	assert.Error(t, err)

	_, err = Fit([][]float64{{1, 2}, {1}}, []float64{1, 2}, 1e-6)
	assert.Error(t, err)
}

func TestPredict_WrongWidth(t *testing.T) {
	x, y := syntheticLinear(12)
	m, err := Fit(x, y, 1e-6)
	require.NoError(t, err)

	_, err = m.Predict([]float64{1, 2})
	assert.Error(t, err)
}

func TestMetrics_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Metrics{MAE: 1.5, R2: math.NaN(), TrainSize: 8, TestSize: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mae":1.5,"r2":null,"train_size":8,"test_size":2}`, string(data))
}
