// Package reconciliation judges recorded forecasts against the prices that were realized.
package reconciliation

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/pricecast/internal/domain"
)

// DefaultTolerance is how far before forecast_for a realized sample may lie and still count
const DefaultTolerance = 10 * time.Minute

// Reconcile pairs every forecast with the latest realized sample of the same asset whose
// observed_at is at or before forecast_for and no more than tolerance earlier.
// Forecasts without such a sample are left out. Output is ordered by forecast_for, then asset.
// Neither input is modified.
func Reconcile(forecasts []domain.ForecastRecord, realized []domain.PricePoint, tolerance time.Duration) []domain.ReconciledRecord {
	forecastsByAsset := make(map[string][]domain.ForecastRecord)
	for _, f := range forecasts {
		forecastsByAsset[f.AssetID] = append(forecastsByAsset[f.AssetID], f)
	}
	realizedByAsset := make(map[string][]domain.PricePoint)
	for _, p := range realized {
		if _, wanted := forecastsByAsset[p.AssetID]; wanted {
			realizedByAsset[p.AssetID] = append(realizedByAsset[p.AssetID], p)
		}
	}

	var out []domain.ReconciledRecord
	for asset, fs := range forecastsByAsset {
		out = append(out, matchBackward(fs, realizedByAsset[asset], tolerance)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ForecastFor.Equal(out[j].ForecastFor) {
			return out[i].ForecastFor.Before(out[j].ForecastFor)
		}
		return out[i].AssetID < out[j].AssetID
	})
	return out
}

// matchBackward is a two-pointer merge over one asset's forecasts and samples
func matchBackward(forecasts []domain.ForecastRecord, realized []domain.PricePoint, tolerance time.Duration) []domain.ReconciledRecord {
	sort.SliceStable(forecasts, func(i, j int) bool {
		return forecasts[i].ForecastFor.Before(forecasts[j].ForecastFor)
	})
	sort.SliceStable(realized, func(i, j int) bool {
		return realized[i].ObservedAt.Before(realized[j].ObservedAt)
	})

	out := make([]domain.ReconciledRecord, 0, len(forecasts))
	j := 0
	for _, f := range forecasts {
		for j < len(realized) && !realized[j].ObservedAt.After(f.ForecastFor) {
			j++
		}
		if j == 0 {
			continue
		}
		match := realized[j-1]
		if f.ForecastFor.Sub(match.ObservedAt) > tolerance {
			continue
		}
		out = append(out, pair(f, match))
	}
	return out
}

func pair(f domain.ForecastRecord, p domain.PricePoint) domain.ReconciledRecord {
	r := domain.ReconciledRecord{
		ForecastFor:    f.ForecastFor,
		AssetID:        f.AssetID,
		ObservedAt:     p.ObservedAt,
		RealizedPrice:  p.Price,
		PredictedPrice: f.PredictedPrice,
		AbsoluteError:  f.PredictedPrice - p.Price,
	}
	if p.Price != 0 {
		r.RelativeError = domain.Float(r.AbsoluteError / p.Price)
	}
	return r
}

// Summary aggregates reconciled rows
type Summary struct {
	Count             int      `json:"count"`
	MAE               *float64 `json:"mae"`
	MeanRelativeError *float64 `json:"mean_relative_error"`
}

// Summarize computes the mean absolute error and the mean of the defined relative errors
func Summarize(records []domain.ReconciledRecord) Summary {
	s := Summary{Count: len(records)}
	if len(records) == 0 {
		return s
	}

	var absSum, relSum float64
	relCount := 0
	for _, r := range records {
		absSum += math.Abs(r.AbsoluteError)
		if r.RelativeError != nil {
			relSum += *r.RelativeError
			relCount++
		}
	}
	s.MAE = domain.Float(absSum / float64(len(records)))
	if relCount > 0 {
		s.MeanRelativeError = domain.Float(relSum / float64(relCount))
	}
	return s
}
