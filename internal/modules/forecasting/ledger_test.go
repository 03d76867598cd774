package forecasting

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)

func rec(asset string, hours int, price, predicted float64) domain.ForecastRecord {
	return domain.ForecastRecord{
		AssetID:             asset,
		ForecastFor:         t0.Add(time.Duration(hours) * time.Hour),
		PriceAtForecastTime: price,
		PredictedPrice:      predicted,
	}
}

func TestMergeLedger_LastWriteWins(t *testing.T) {
	old := []domain.ForecastRecord{rec("btc", 0, 100, 101), rec("eth", 0, 3000, 3010), rec("btc", 1, 101, 102)}
	incoming := []domain.ForecastRecord{rec("btc", 0, 100, 99)}

	merged := MergeLedger(old, incoming)

	assert.Equal(t, []domain.ForecastRecord{
		rec("eth", 0, 3000, 3010),
		rec("btc", 1, 101, 102),
		rec("btc", 0, 100, 99),
	}, merged)
	assert.Equal(t, 101.0, old[0].PredictedPrice, "inputs untouched")
}

func TestMergeLedger_DropsExactDuplicates(t *testing.T) {
	r := rec("eth", 0, 3000, 3010)
	merged := MergeLedger([]domain.ForecastRecord{r, r}, []domain.ForecastRecord{r})
	assert.Equal(t, []domain.ForecastRecord{r}, merged)
}

func TestMergeLedger_StripsNonFinite(t *testing.T) {
	good := rec("btc", 0, 100, 101)
	merged := MergeLedger(
		[]domain.ForecastRecord{good, rec("ada", 0, math.NaN(), 1)},
		[]domain.ForecastRecord{rec("btc", 0, 100, math.Inf(1)), rec("sol", 0, 150, math.Inf(-1))},
	)

	assert.Equal(t, []domain.ForecastRecord{good}, merged, "a non-finite rewrite never replaces a clean row")
}

func TestMergeLedger_Empty(t *testing.T) {
	assert.Empty(t, MergeLedger(nil, nil))
}

func TestMergeLedger_OneRowPerKeyCarryingNewestValues(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	assets := []string{"btc", "eth", "ada"}

	for round := 0; round < 50; round++ {
		var old, incoming []domain.ForecastRecord
		newest := map[string]float64{}
		for i := 0; i < 30; i++ {
			r := rec(assets[rng.Intn(len(assets))], rng.Intn(5), 1, float64(round*100+i))
			key := fmt.Sprintf("%s|%d", r.AssetID, r.ForecastFor.Unix())
			newest[key] = r.PredictedPrice
			if i < 15 {
				old = append(old, r)
			} else {
				incoming = append(incoming, r)
			}
		}

		merged := MergeLedger(old, incoming)
		require.Len(t, merged, len(newest))
		for _, r := range merged {
			key := fmt.Sprintf("%s|%d", r.AssetID, r.ForecastFor.Unix())
			assert.Equal(t, newest[key], r.PredictedPrice)
		}
	}
}

func TestSortByForecastFor(t *testing.T) {
	records := []domain.ForecastRecord{rec("eth", 2, 1, 1), rec("btc", 0, 1, 1), rec("ada", 2, 1, 1)}
	SortByForecastFor(records)
	assert.Equal(t, "btc", records[0].AssetID)
	assert.Equal(t, "ada", records[1].AssetID)
	assert.Equal(t, "eth", records[2].AssetID)
}

func TestParquetLedger_AppendIsIdempotent(t *testing.T) {
	ledger := NewParquetLedger(filepath.Join(t.TempDir(), "ledger.parquet"))

	records, err := ledger.Load()
	require.NoError(t, err)
	assert.Empty(t, records)

	r := rec("eth", 0, 3000, 3012.5)
	size, err := ledger.Append([]domain.ForecastRecord{r})
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	size, err = ledger.Append([]domain.ForecastRecord{r})
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	updated := r
	updated.PredictedPrice = 2999
	_, err = ledger.Append([]domain.ForecastRecord{updated, rec("btc", 0, 100, 101)})
	require.NoError(t, err)

	records, err = ledger.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2999.0, records[0].PredictedPrice)
	assert.True(t, records[0].ForecastFor.Equal(t0))

	info, err := ledger.Info()
	require.NoError(t, err)
	assert.Equal(t, int64(2), *info.Rows)
}
