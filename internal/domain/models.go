// Package domain holds the records that flow between pipeline stages.
package domain

import (
	"math"
	"time"
)

// PricePoint is one realized price sample for an asset
type PricePoint struct {
	AssetID    string    `json:"asset_id"`
	Name       string    `json:"name,omitempty"`
	Price      float64   `json:"price"`
	MarketCap  *float64  `json:"market_cap,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// FeatureRow is a price sample enriched with rolling features.
// Derived fields are nil where not enough history (or no next sample) exists.
type FeatureRow struct {
	AssetID        string    `json:"asset_id"`
	ObservedAt     time.Time `json:"observed_at"`
	Price          float64   `json:"price"`
	MovingAvgShort *float64  `json:"moving_avg_short"`
	MovingAvgLong  *float64  `json:"moving_avg_long"`
	PctChange1     *float64  `json:"pct_change_1"`
	ForwardTarget  *float64  `json:"forward_target"`
}

// FeatureNames is the fixed model input schema, in vector order
var FeatureNames = []string{"price", "moving_avg_short", "moving_avg_long", "pct_change_1"}

// HasFeatures reports whether every model input is defined
func (r FeatureRow) HasFeatures() bool {
	return r.MovingAvgShort != nil && r.MovingAvgLong != nil && r.PctChange1 != nil
}

// IsComplete reports whether the row can be used for training
func (r FeatureRow) IsComplete() bool {
	return r.HasFeatures() && r.ForwardTarget != nil
}

// FeatureVector returns the inputs in FeatureNames order, or false if any is missing
func (r FeatureRow) FeatureVector() ([]float64, bool) {
	if !r.HasFeatures() {
		return nil, false
	}
	return []float64{r.Price, *r.MovingAvgShort, *r.MovingAvgLong, *r.PctChange1}, true
}

// ForecastRecord is one ledger entry, unique per (AssetID, ForecastFor)
type ForecastRecord struct {
	AssetID             string    `json:"asset_id"`
	ForecastFor         time.Time `json:"forecast_for"`
	PriceAtForecastTime float64   `json:"price_at_forecast_time"`
	PredictedPrice      float64   `json:"predicted_price"`
}

// IsFinite reports whether both numeric fields are finite
func (f ForecastRecord) IsFinite() bool {
	return IsFinite(f.PriceAtForecastTime) && IsFinite(f.PredictedPrice)
}

// ReconciledRecord pairs a forecast with the realized price it is judged against.
// RelativeError is nil when the realized price is zero.
type ReconciledRecord struct {
	ForecastFor    time.Time `json:"forecast_for"`
	AssetID        string    `json:"asset_id"`
	ObservedAt     time.Time `json:"observed_at"`
	RealizedPrice  float64   `json:"realized_price"`
	PredictedPrice float64   `json:"predicted_price"`
	AbsoluteError  float64   `json:"absolute_error"`
	RelativeError  *float64  `json:"relative_error"`
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
