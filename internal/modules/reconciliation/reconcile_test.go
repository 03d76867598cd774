package reconciliation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var thirteen = time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)

func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 1, hh, mm, 0, 0, time.UTC)
}

func forecast(asset string, forAt time.Time, predicted float64) domain.ForecastRecord {
	return domain.ForecastRecord{AssetID: asset, ForecastFor: forAt, PriceAtForecastTime: 1, PredictedPrice: predicted}
}

func price(asset string, observed time.Time, p float64) domain.PricePoint {
	return domain.PricePoint{AssetID: asset, ObservedAt: observed, Price: p}
}

func TestReconcile_BackwardWithinTolerance(t *testing.T) {
	forecasts := []domain.ForecastRecord{forecast("btc", thirteen, 105)}
	realized := []domain.PricePoint{price("btc", at(13, 12), 200), price("btc", at(12, 58), 100)}

	records := Reconcile(forecasts, realized, 10*time.Minute)

	require.Len(t, records, 1)
	r := records[0]
	assert.True(t, r.ObservedAt.Equal(at(12, 58)), "the 13:12 sample is in the future and never used")
	assert.Equal(t, 100.0, r.RealizedPrice)
	assert.Equal(t, 105.0, r.PredictedPrice)
	assert.Equal(t, 5.0, r.AbsoluteError)
	require.NotNil(t, r.RelativeError)
	assert.InDelta(t, 0.05, *r.RelativeError, 1e-12)
}

func TestReconcile_BeyondToleranceIsExcluded(t *testing.T) {
	forecasts := []domain.ForecastRecord{forecast("btc", thirteen, 105)}
	realized := []domain.PricePoint{price("btc", at(12, 45), 100), price("btc", at(13, 12), 200)}

	assert.Empty(t, Reconcile(forecasts, realized, 10*time.Minute))
}

func TestReconcile_ToleranceBoundaryIsInclusive(t *testing.T) {
	forecasts := []domain.ForecastRecord{forecast("btc", thirteen, 1)}

	assert.Len(t, Reconcile(forecasts, []domain.PricePoint{price("btc", at(12, 50), 1)}, 10*time.Minute), 1)
	assert.Len(t, Reconcile(forecasts, []domain.PricePoint{price("btc", thirteen, 1)}, 0), 1)
}

func TestReconcile_ZeroRealizedPriceLeavesRelativeErrorUndefined(t *testing.T) {
	records := Reconcile(
		[]domain.ForecastRecord{forecast("ada", thirteen, 0.5)},
		[]domain.PricePoint{price("ada", at(12, 59), 0)},
		DefaultTolerance,
	)
	require.Len(t, records, 1)
	assert.Equal(t, 0.5, records[0].AbsoluteError)
	assert.Nil(t, records[0].RelativeError)
}

func TestReconcile_MatchesOnlyWithinAsset(t *testing.T) {
	forecasts := []domain.ForecastRecord{
		forecast("eth", thirteen, 3000),
		forecast("btc", thirteen, 100),
		forecast("btc", thirteen.Add(-time.Hour), 99),
	}
	realized := []domain.PricePoint{
		price("eth", at(12, 55), 2990),
		price("btc", at(11, 59), 98),
		price("sol", at(12, 59), 150),
	}

	records := Reconcile(forecasts, realized, DefaultTolerance)
	require.Len(t, records, 2)
	assert.Equal(t, "btc", records[0].AssetID)
	assert.True(t, records[0].ForecastFor.Equal(at(12, 0)))
	assert.Equal(t, "eth", records[1].AssetID)
	assert.Equal(t, 2990.0, records[1].RealizedPrice)
}

func TestReconcile_DuplicateSampleTimesUseLastSample(t *testing.T) {
	records := Reconcile(
		[]domain.ForecastRecord{forecast("btc", thirteen, 100)},
		[]domain.PricePoint{price("btc", at(12, 58), 90), price("btc", at(12, 58), 95)},
		DefaultTolerance,
	)
	require.Len(t, records, 1)
	assert.Equal(t, 95.0, records[0].RealizedPrice)
}

func TestReconcile_EmptyInputs(t *testing.T) {
	assert.Empty(t, Reconcile(nil, nil, DefaultTolerance))
	assert.Empty(t, Reconcile([]domain.ForecastRecord{forecast("btc", thirteen, 1)}, nil, DefaultTolerance))
}

func randomInputs(rng *rand.Rand) ([]domain.ForecastRecord, []domain.PricePoint) {
	assets := []string{"btc", "eth"}
	var forecasts []domain.ForecastRecord
	var realized []domain.PricePoint
	for i := 0; i < 40; i++ {
		a := assets[rng.Intn(2)]
		forecasts = append(forecasts, forecast(a, at(10, 0).Add(time.Duration(rng.Intn(600))*time.Minute), float64(rng.Intn(100))))
		realized = append(realized, price(a, at(10, 0).Add(time.Duration(rng.Intn(600))*time.Minute), float64(1+rng.Intn(100))))
	}
	return forecasts, realized
}

func TestReconcile_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 20; round++ {
		forecasts, realized := randomInputs(rng)
		first := Reconcile(forecasts, realized, DefaultTolerance)
		second := Reconcile(forecasts, realized, DefaultTolerance)
		assert.Equal(t, first, second)
	}
}

func TestReconcile_WideningToleranceNeverDropsMatches(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	tolerances := []time.Duration{0, time.Minute, 10 * time.Minute, time.Hour, 24 * time.Hour}

	for round := 0; round < 20; round++ {
		forecasts, realized := randomInputs(rng)
		for i := 1; i < len(tolerances); i++ {
			narrow := Reconcile(forecasts, realized, tolerances[i-1])
			wide := Reconcile(forecasts, realized, tolerances[i])

			wideSet := make(map[domain.ReconciledRecord]bool)
			for _, r := range wide {
				r.RelativeError = nil
				wideSet[r] = true
			}
			for _, r := range narrow {
				r.RelativeError = nil
				assert.True(t, wideSet[r], "pair %v lost when widening to %s", r, tolerances[i])
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Nil(t, s.MAE)

	records := []domain.ReconciledRecord{
		{AbsoluteError: 5, RelativeError: domain.Float(0.05)},
		{AbsoluteError: -3, RelativeError: domain.Float(-0.01)},
		{AbsoluteError: 1},
	}
	s = Summarize(records)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 3.0, *s.MAE, 1e-12)
	assert.InDelta(t, 0.02, *s.MeanRelativeError, 1e-12)
}
