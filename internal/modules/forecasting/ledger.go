// Package forecasting turns the latest feature rows into one-step-ahead forecasts
// and keeps them in a deduplicated ledger.
package forecasting

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aristath/pricecast/internal/artifacts"
	"github.com/aristath/pricecast/internal/domain"
)

// MergeLedger appends incoming to old and returns the merged ledger.
//
// Rows with non-finite numbers are dropped. For every (asset, forecast_for) key only
// the last row in old+incoming order survives, at that row's position, so the result
// keeps insertion order and a rewrite of an existing key supersedes it.
// Neither input is modified.
func MergeLedger(old, incoming []domain.ForecastRecord) []domain.ForecastRecord {
	combined := make([]domain.ForecastRecord, 0, len(old)+len(incoming))
	for _, r := range old {
		if r.IsFinite() {
			combined = append(combined, r)
		}
	}
	for _, r := range incoming {
		if r.IsFinite() {
			combined = append(combined, r)
		}
	}

	seen := make(map[string]struct{}, len(combined))
	kept := make([]domain.ForecastRecord, 0, len(combined))
	for i := len(combined) - 1; i >= 0; i-- {
		k := ledgerKey(combined[i])
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, combined[i])
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

func ledgerKey(r domain.ForecastRecord) string {
	return r.AssetID + "|" + strconv.FormatInt(r.ForecastFor.UnixMilli(), 10)
}

// SortByForecastFor orders records by forecast_for, then asset, for readers
func SortByForecastFor(records []domain.ForecastRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].ForecastFor.Equal(records[j].ForecastFor) {
			return records[i].ForecastFor.Before(records[j].ForecastFor)
		}
		return records[i].AssetID < records[j].AssetID
	})
}

// Ledger is the forecast ledger artifact handle
type Ledger interface {
	Load() ([]domain.ForecastRecord, error)
	Append(records []domain.ForecastRecord) (int, error)
}

// ledgerRecord is the on-disk column layout of the ledger
type ledgerRecord struct {
	AssetID             string  `parquet:"asset_id"`
	ForecastFor         int64   `parquet:"forecast_for"` // Unix milliseconds, UTC
	PriceAtForecastTime float64 `parquet:"price_at_forecast_time"`
	PredictedPrice      float64 `parquet:"predicted_price"`
}

// ParquetLedger stores the ledger as a single parquet file rewritten on every append.
// Appends from one process are serialized; readers may see the previous version.
type ParquetLedger struct {
	mu   sync.Mutex
	path string
}

// NewParquetLedger creates a ledger backed by the file at path
func NewParquetLedger(path string) *ParquetLedger {
	return &ParquetLedger{path: path}
}

var _ Ledger = (*ParquetLedger)(nil)

// Path returns the artifact location
func (l *ParquetLedger) Path() string {
	return l.path
}

// Load returns every record in insertion order; a missing artifact yields none
func (l *ParquetLedger) Load() ([]domain.ForecastRecord, error) {
	stored, err := artifacts.ReadParquet[ledgerRecord](l.path)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ForecastRecord, len(stored))
	for i, r := range stored {
		records[i] = domain.ForecastRecord{
			AssetID:             r.AssetID,
			ForecastFor:         time.UnixMilli(r.ForecastFor).UTC(),
			PriceAtForecastTime: r.PriceAtForecastTime,
			PredictedPrice:      r.PredictedPrice,
		}
	}
	return records, nil
}

// Append merges records into the ledger and returns the resulting ledger size
func (l *ParquetLedger) Append(records []domain.ForecastRecord) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, err := l.Load()
	if err != nil {
		return 0, err
	}

	merged := MergeLedger(old, records)
	stored := make([]ledgerRecord, len(merged))
	for i, r := range merged {
		stored[i] = ledgerRecord{
			AssetID:             r.AssetID,
			ForecastFor:         r.ForecastFor.UnixMilli(),
			PriceAtForecastTime: r.PriceAtForecastTime,
			PredictedPrice:      r.PredictedPrice,
		}
	}

	if err := artifacts.WriteParquet(l.path, stored); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// Info reports artifact metadata for diagnostics
func (l *ParquetLedger) Info() (artifacts.Info, error) {
	return artifacts.StatParquet("ledger", l.path)
}
