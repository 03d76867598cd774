package forecasting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/features"
	"github.com/aristath/pricecast/internal/modules/training"
	"github.com/aristath/pricecast/internal/utils"
	"github.com/rs/zerolog"
)

var (
	// ErrUnknownAsset is returned when the feature artifact has no rows for an asset
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrIncompleteFeatures is returned when the latest row lacks a model input
	ErrIncompleteFeatures = errors.New("latest feature row is incomplete")
)

// Status is the per-asset result of a forecast run
type Status string

const (
	StatusForecasted       Status = "forecasted"
	StatusModelUnavailable Status = "model_unavailable"
	StatusFailed           Status = "failed"
)

// Outcome reports what happened to one asset.
// Record is set only for StatusForecasted; Err only for StatusFailed.
type Outcome struct {
	AssetID string                 `json:"asset_id"`
	Status  Status                 `json:"status"`
	Record  *domain.ForecastRecord `json:"record,omitempty"`
	Err     error                  `json:"-"`
}

// ModelLoader loads the persisted model for an asset
type ModelLoader interface {
	Load(assetID string) (*training.LinearModel, error)
}

// Forecast builds the one-step-ahead record for row using model
func Forecast(row domain.FeatureRow, model training.Regressor, step time.Duration) (domain.ForecastRecord, error) {
	vec, ok := row.FeatureVector()
	if !ok {
		return domain.ForecastRecord{}, fmt.Errorf("%w for %s at %s", ErrIncompleteFeatures, row.AssetID, row.ObservedAt.Format(time.RFC3339))
	}

	predicted, err := model.Predict(vec)
	if err != nil {
		return domain.ForecastRecord{}, fmt.Errorf("predict %s: %w", row.AssetID, err)
	}

	return domain.ForecastRecord{
		AssetID:             row.AssetID,
		ForecastFor:         row.ObservedAt.Add(step),
		PriceAtForecastTime: row.Price,
		PredictedPrice:      predicted,
	}, nil
}

// Forecaster applies each asset's model to its latest feature row and appends to the ledger
type Forecaster struct {
	features features.Store
	models   ModelLoader
	ledger   Ledger
	step     time.Duration
	log      zerolog.Logger
}

// NewForecaster creates a new forecaster
func NewForecaster(featureStore features.Store, models ModelLoader, ledger Ledger, step time.Duration, log zerolog.Logger) *Forecaster {
	return &Forecaster{
		features: featureStore,
		models:   models,
		ledger:   ledger,
		step:     step,
		log:      log.With().Str("component", "forecaster").Logger(),
	}
}

// Run forecasts every asset in the feature artifact and merges the results into the ledger.
// Missing models and per-asset failures are outcomes; artifact I/O failures are errors.
func (f *Forecaster) Run(ctx context.Context) ([]Outcome, error) {
	defer utils.OperationTimer("forecast", f.log)()

	rows, err := f.features.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load feature artifact: %w", err)
	}

	latest := features.LatestByAsset(rows)
	assets := make([]string, 0, len(latest))
	for asset := range latest {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	outcomes := make([]Outcome, 0, len(assets))
	var records []domain.ForecastRecord
	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{AssetID: asset, Status: StatusFailed, Err: err})
			continue
		}
		o := f.forecastAsset(latest[asset])
		f.logOutcome(o)
		if o.Record != nil {
			records = append(records, *o.Record)
		}
		outcomes = append(outcomes, o)
	}

	if len(records) > 0 {
		size, err := f.ledger.Append(records)
		if err != nil {
			return outcomes, fmt.Errorf("failed to append to ledger: %w", err)
		}
		f.log.Info().Int("appended", len(records)).Int("ledger_size", size).Msg("Ledger updated")
	}

	return outcomes, nil
}

// ForecastAsset forecasts a single asset on demand and merges the record into the ledger.
// Returns ErrUnknownAsset when there are no feature rows and training.ErrModelNotFound
// when the asset has no model yet.
func (f *Forecaster) ForecastAsset(ctx context.Context, assetID string) (*domain.ForecastRecord, error) {
	rows, err := f.features.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load feature artifact: %w", err)
	}

	row, ok := features.LatestByAsset(rows)[assetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}

	model, err := f.models.Load(assetID)
	if err != nil {
		return nil, err
	}

	record, err := Forecast(row, model, f.step)
	if err != nil {
		return nil, err
	}

	if _, err := f.ledger.Append([]domain.ForecastRecord{record}); err != nil {
		return nil, fmt.Errorf("failed to append to ledger: %w", err)
	}
	return &record, nil
}

func (f *Forecaster) forecastAsset(row domain.FeatureRow) Outcome {
	outcome := Outcome{AssetID: row.AssetID}

	model, err := f.models.Load(row.AssetID)
	if errors.Is(err, training.ErrModelNotFound) {
		outcome.Status = StatusModelUnavailable
		return outcome
	}
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	record, err := Forecast(row, model, f.step)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	outcome.Status = StatusForecasted
	outcome.Record = &record
	return outcome
}

func (f *Forecaster) logOutcome(o Outcome) {
	switch o.Status {
	case StatusForecasted:
		f.log.Info().
			Str("asset", o.AssetID).
			Time("forecast_for", o.Record.ForecastFor).
			Float64("price", o.Record.PriceAtForecastTime).
			Float64("predicted", o.Record.PredictedPrice).
			Msg("Forecast emitted")
	case StatusModelUnavailable:
		f.log.Warn().Str("asset", o.AssetID).Msg("No model available, skipping forecast")
	case StatusFailed:
		f.log.Error().Err(o.Err).Str("asset", o.AssetID).Msg("Forecast failed")
	}
}
