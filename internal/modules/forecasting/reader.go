package forecasting

import (
	"errors"
	"fmt"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/features"
)

// ErrNoForecasts is returned when the ledger holds no records for an asset
var ErrNoForecasts = errors.New("no forecasts recorded")

// Reader serves the read-only forecast views. It never writes artifacts.
type Reader struct {
	features features.Store
	models   ModelLoader
	ledger   Ledger
}

// NewReader creates a new forecast reader
func NewReader(featureStore features.Store, models ModelLoader, ledger Ledger) *Reader {
	return &Reader{features: featureStore, models: models, ledger: ledger}
}

// History returns the asset's ledger rows within [from, to] (zero bounds are open),
// sorted by forecast_for. ErrNoForecasts means the asset has no rows at all.
func (r *Reader) History(assetID string, from, to time.Time) ([]domain.ForecastRecord, error) {
	records, err := r.forAsset(assetID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoForecasts, assetID)
	}

	filtered := make([]domain.ForecastRecord, 0, len(records))
	for _, rec := range records {
		if !from.IsZero() && rec.ForecastFor.Before(from) {
			continue
		}
		if !to.IsZero() && rec.ForecastFor.After(to) {
			continue
		}
		filtered = append(filtered, rec)
	}
	SortByForecastFor(filtered)
	return filtered, nil
}

// Latest returns the asset's most recent forecast.
// Errors: ErrUnknownAsset when neither features nor ledger know the asset,
// training.ErrModelNotFound when it has no model yet, ErrNoForecasts when nothing was recorded.
func (r *Reader) Latest(assetID string) (*domain.ForecastRecord, error) {
	records, err := r.forAsset(assetID)
	if err != nil {
		return nil, err
	}

	rows, err := r.features.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load feature artifact: %w", err)
	}
	_, hasFeatures := features.LatestByAsset(rows)[assetID]
	if !hasFeatures && len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}

	if _, err := r.models.Load(assetID); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoForecasts, assetID)
	}

	latest := records[0]
	for _, rec := range records[1:] {
		if !rec.ForecastFor.Before(latest.ForecastFor) {
			latest = rec
		}
	}
	return &latest, nil
}

func (r *Reader) forAsset(assetID string) ([]domain.ForecastRecord, error) {
	all, err := r.ledger.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	var records []domain.ForecastRecord
	for _, rec := range all {
		if rec.AssetID == assetID {
			records = append(records, rec)
		}
	}
	return records, nil
}
