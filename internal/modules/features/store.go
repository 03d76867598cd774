package features

import (
	"time"

	"github.com/aristath/pricecast/internal/artifacts"
	"github.com/aristath/pricecast/internal/domain"
)

// Store is the feature artifact handle shared by the generator, trainer and forecaster
type Store interface {
	Save(rows []domain.FeatureRow) error
	Load() ([]domain.FeatureRow, error)
}

// featureRecord is the on-disk column layout of the feature artifact
type featureRecord struct {
	AssetID        string   `parquet:"asset_id"`
	ObservedAt     int64    `parquet:"observed_at"` // Unix milliseconds, UTC
	Price          float64  `parquet:"price"`
	MovingAvgShort *float64 `parquet:"moving_avg_short"`
	MovingAvgLong  *float64 `parquet:"moving_avg_long"`
	PctChange1     *float64 `parquet:"pct_change_1"`
	ForwardTarget  *float64 `parquet:"forward_target"`
}

// ParquetStore keeps every feature row in a single parquet file, overwritten each cycle
type ParquetStore struct {
	path string
}

// NewParquetStore creates a feature store backed by the file at path
func NewParquetStore(path string) *ParquetStore {
	return &ParquetStore{path: path}
}

var _ Store = (*ParquetStore)(nil)

// Path returns the artifact location
func (s *ParquetStore) Path() string {
	return s.path
}

// Save replaces the artifact with rows
func (s *ParquetStore) Save(rows []domain.FeatureRow) error {
	records := make([]featureRecord, len(rows))
	for i, r := range rows {
		records[i] = featureRecord{
			AssetID:        r.AssetID,
			ObservedAt:     r.ObservedAt.UnixMilli(),
			Price:          r.Price,
			MovingAvgShort: r.MovingAvgShort,
			MovingAvgLong:  r.MovingAvgLong,
			PctChange1:     r.PctChange1,
			ForwardTarget:  r.ForwardTarget,
		}
	}
	return artifacts.WriteParquet(s.path, records)
}

// Load reads every row; a missing artifact yields no rows
func (s *ParquetStore) Load() ([]domain.FeatureRow, error) {
	records, err := artifacts.ReadParquet[featureRecord](s.path)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.FeatureRow, len(records))
	for i, r := range records {
		rows[i] = domain.FeatureRow{
			AssetID:        r.AssetID,
			ObservedAt:     time.UnixMilli(r.ObservedAt).UTC(),
			Price:          r.Price,
			MovingAvgShort: r.MovingAvgShort,
			MovingAvgLong:  r.MovingAvgLong,
			PctChange1:     r.PctChange1,
			ForwardTarget:  r.ForwardTarget,
		}
	}
	return rows, nil
}

// Info reports artifact metadata for diagnostics
func (s *ParquetStore) Info() (artifacts.Info, error) {
	return artifacts.StatParquet("features", s.path)
}
