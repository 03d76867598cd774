package forecasting

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/features"
	"github.com/aristath/pricecast/internal/modules/training"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	features *features.ParquetStore
	models   *training.FileModelStore
	ledger   *ParquetLedger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	return fixture{
		features: features.NewParquetStore(filepath.Join(dir, "features.parquet")),
		models:   training.NewFileModelStore(filepath.Join(dir, "models")),
		ledger:   NewParquetLedger(filepath.Join(dir, "ledger.parquet")),
	}
}

func (f fixture) forecaster() *Forecaster {
	return NewForecaster(f.features, f.models, f.ledger, time.Hour, zerolog.Nop())
}

func latestRow(asset string, at time.Time, price float64) domain.FeatureRow {
	return domain.FeatureRow{
		AssetID:        asset,
		ObservedAt:     at,
		Price:          price,
		MovingAvgShort: domain.Float(price - 5),
		MovingAvgLong:  domain.Float(price - 10),
		PctChange1:     domain.Float(0.001),
	}
}

// passThroughModel predicts price + 5
func passThroughModel(asset string) *training.LinearModel {
	return &training.LinearModel{
		AssetID:      asset,
		FeatureNames: domain.FeatureNames,
		Means:        []float64{0, 0, 0, 0},
		Scales:       []float64{1, 1, 1, 1},
		Coefficients: []float64{1, 0, 0, 0},
		Intercept:    5,
	}
}

func TestForecast_ETHScenario(t *testing.T) {
	noon := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	record, err := Forecast(latestRow("eth", noon, 3000), passThroughModel("eth"), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "eth", record.AssetID)
	assert.True(t, record.ForecastFor.Equal(time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3000.0, record.PriceAtForecastTime)
	assert.Equal(t, 3005.0, record.PredictedPrice)
	assert.True(t, record.IsFinite())
}

func TestForecast_IncompleteRow(t *testing.T) {
	row := latestRow("eth", t0, 3000)
	row.MovingAvgLong = nil

	_, err := Forecast(row, passThroughModel("eth"), time.Hour)
	assert.ErrorIs(t, err, ErrIncompleteFeatures)
}

func TestForecaster_RunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	noon := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ethRows := []domain.FeatureRow{latestRow("eth", noon.Add(-time.Hour), 2990), latestRow("eth", noon, 3000)}
	ethRows[0].ForwardTarget = domain.Float(3000)
	require.NoError(t, f.features.Save(append(ethRows, latestRow("btc", noon, 60000))))
	require.NoError(t, f.models.Save(passThroughModel("eth")))

	for i := 0; i < 2; i++ {
		outcomes, err := f.forecaster().Run(context.Background())
		require.NoError(t, err)
		require.Len(t, outcomes, 2)

		assert.Equal(t, "btc", outcomes[0].AssetID)
		assert.Equal(t, StatusModelUnavailable, outcomes[0].Status)
		assert.Nil(t, outcomes[0].Record)

		assert.Equal(t, "eth", outcomes[1].AssetID)
		assert.Equal(t, StatusForecasted, outcomes[1].Status)
		require.NotNil(t, outcomes[1].Record)
		assert.Equal(t, 3000.0, outcomes[1].Record.PriceAtForecastTime)
	}

	ledger, err := f.ledger.Load()
	require.NoError(t, err)
	require.Len(t, ledger, 1, "appending the same forecast twice keeps one row")
	assert.True(t, ledger[0].ForecastFor.Equal(time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)))
}

func TestForecaster_RunWithoutFeatures(t *testing.T) {
	f := newFixture(t)

	outcomes, err := f.forecaster().Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	records, err := f.ledger.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestForecaster_ForecastAsset(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.features.Save([]domain.FeatureRow{latestRow("eth", t0, 3000), latestRow("ada", t0, 0.5)}))
	require.NoError(t, f.models.Save(passThroughModel("eth")))

	_, err := f.forecaster().ForecastAsset(context.Background(), "doge")
	assert.ErrorIs(t, err, ErrUnknownAsset)

	_, err = f.forecaster().ForecastAsset(context.Background(), "ada")
	assert.ErrorIs(t, err, training.ErrModelNotFound)

	record, err := f.forecaster().ForecastAsset(context.Background(), "eth")
	require.NoError(t, err)
	assert.Equal(t, 3005.0, record.PredictedPrice)

	ledger, err := f.ledger.Load()
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

type failingLoader struct{}

func (failingLoader) Load(string) (*training.LinearModel, error) {
	return nil, errors.New("corrupt model")
}

func TestForecaster_LoaderFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.features.Save([]domain.FeatureRow{latestRow("eth", t0, 3000)}))

	forecaster := NewForecaster(f.features, failingLoader{}, f.ledger, time.Hour, zerolog.Nop())
	outcomes, err := forecaster.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.ErrorContains(t, outcomes[0].Err, "corrupt model")
}
