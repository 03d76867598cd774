package features

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/pricecast/internal/modules/prices"
	testutil "github.com/aristath/pricecast/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Run(t *testing.T) {
	source := prices.NewMemoryStore(append(
		testutil.PriceSeries("btc", time.Hour, 100, 101, 99, 102, 103, 101, 104, 105),
		testutil.PriceSeries("eth", time.Hour, 3000, 3010)...,
	)...)
	store := NewParquetStore(filepath.Join(t.TempDir(), "features.parquet"))
	svc := NewService(source, store, DefaultWindows, zerolog.Nop())

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Samples)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, map[string]int{"btc": 3}, result.PerAsset)
	assert.Empty(t, result.Lagging)

	rows, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestService_Run_ReportsLaggingAssets(t *testing.T) {
	var buf bytes.Buffer
	source := prices.NewMemoryStore(testutil.PriceSeries("btc", time.Hour, 100, 101, 102, 103, 104, 105, 0, 5)...)
	store := NewParquetStore(filepath.Join(t.TempDir(), "features.parquet"))
	svc := NewService(source, store, DefaultWindows, zerolog.New(&buf))

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, []string{"btc"}, result.Lagging)
	assert.Contains(t, buf.String(), `"asset":"btc"`)
	assert.Contains(t, buf.String(), "latest feature row is older")
}

func TestService_Run_OverwritesPreviousArtifact(t *testing.T) {
	source := prices.NewMemoryStore(testutil.PriceSeries("btc", time.Hour, testutil.WavePrices(20, 100)...)...)
	store := NewParquetStore(filepath.Join(t.TempDir(), "features.parquet"))
	svc := NewService(source, store, DefaultWindows, zerolog.Nop())

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	emptySvc := NewService(prices.NewMemoryStore(), store, DefaultWindows, zerolog.Nop())
	result, err := emptySvc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Rows)

	rows, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_Run_SourceError(t *testing.T) {
	source := prices.NewMemoryStore()
	source.FailWith(errors.New("db locked"))
	svc := NewService(source, NewParquetStore(filepath.Join(t.TempDir(), "f.parquet")), DefaultWindows, zerolog.Nop())

	_, err := svc.Run(context.Background())
	assert.ErrorContains(t, err, "db locked")
}
