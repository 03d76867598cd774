package reporting

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var thirteen = time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)

func TestWriteForecasts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecasts(&buf, []domain.ForecastRecord{
		{AssetID: "eth", ForecastFor: thirteen, PriceAtForecastTime: 3000, PredictedPrice: 3012.25},
	}, time.UTC))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "asset_id,forecast_for,price_at_forecast_time,predicted_price", lines[0])
	assert.Equal(t, "eth,2024-03-01T13:00:00Z,3000,3012.25", lines[1])
}

func TestWriteReconciled_TimezoneAndBlankRelativeError(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*3600)

	var buf bytes.Buffer
	require.NoError(t, WriteReconciled(&buf, []domain.ReconciledRecord{
		{ForecastFor: thirteen, AssetID: "ada", ObservedAt: thirteen.Add(-2 * time.Minute), RealizedPrice: 0, PredictedPrice: 0.5, AbsoluteError: 0.5},
	}, saoPaulo))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-03-01T10:00:00-03:00,ada,2024-03-01T09:58:00-03:00,0,0.5,0.5,", lines[1])
}

func TestWritePrices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePrices(&buf, []domain.PricePoint{
		{AssetID: "btc", Name: "Bitcoin, digital gold", ObservedAt: thirteen, Price: 60000.5, MarketCap: domain.Float(1.2e12)},
	}, nil))

	assert.Contains(t, buf.String(), `btc,"Bitcoin, digital gold",2024-03-01T13:00:00Z,60000.5,1200000000000`)
}
