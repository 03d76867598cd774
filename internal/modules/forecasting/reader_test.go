package forecasting

import (
	"testing"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_History(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Append([]domain.ForecastRecord{
		rec("eth", 2, 3000, 3001),
		rec("eth", 0, 3000, 3002),
		rec("btc", 1, 100, 101),
		rec("eth", 1, 3000, 3003),
	})
	require.NoError(t, err)

	reader := NewReader(f.features, f.models, f.ledger)

	all, err := reader.History("eth", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []float64{3002, 3003, 3001}, []float64{all[0].PredictedPrice, all[1].PredictedPrice, all[2].PredictedPrice})

	window, err := reader.History("eth", t0.Add(time.Hour), t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, 3003.0, window[0].PredictedPrice)

	empty, err := reader.History("eth", t0.Add(10*time.Hour), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = reader.History("sol", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNoForecasts)
}

func TestReader_Latest(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.features.Save([]domain.FeatureRow{
		latestRow("eth", t0, 3000),
		latestRow("ada", t0, 0.5),
		latestRow("sol", t0, 150),
	}))
	require.NoError(t, f.models.Save(passThroughModel("eth")))
	require.NoError(t, f.models.Save(passThroughModel("sol")))
	_, err := f.ledger.Append([]domain.ForecastRecord{rec("eth", 1, 3000, 3005), rec("eth", 0, 2990, 2995)})
	require.NoError(t, err)

	reader := NewReader(f.features, f.models, f.ledger)

	latest, err := reader.Latest("eth")
	require.NoError(t, err)
	assert.Equal(t, 3005.0, latest.PredictedPrice)

	_, err = reader.Latest("doge")
	assert.ErrorIs(t, err, ErrUnknownAsset)

	_, err = reader.Latest("ada")
	assert.ErrorIs(t, err, training.ErrModelNotFound)

	_, err = reader.Latest("sol")
	assert.ErrorIs(t, err, ErrNoForecasts)
}
