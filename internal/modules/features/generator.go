// Package features derives rolling-window feature rows from raw price samples.
package features

import (
	"sort"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/pkg/formulas"
)

// Windows holds the moving average lengths
type Windows struct {
	Short int
	Long  int
}

// DefaultWindows are the 3/6 sample moving averages the model schema is built on
var DefaultWindows = Windows{Short: 3, Long: 6}

// Generate turns an unordered set of price samples into one feature row per sample.
//
// Samples are partitioned by asset (assets in ascending order) and stably sorted by
// observed_at, so samples sharing a timestamp keep their input order and each still
// yields its own row. Derived fields are left nil where they are undefined.
func Generate(points []domain.PricePoint, w Windows) []domain.FeatureRow {
	if len(points) == 0 {
		return nil
	}

	partitions := make(map[string][]domain.PricePoint)
	for _, p := range points {
		partitions[p.AssetID] = append(partitions[p.AssetID], p)
	}

	assets := make([]string, 0, len(partitions))
	for asset := range partitions {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	rows := make([]domain.FeatureRow, 0, len(points))
	for _, asset := range assets {
		rows = append(rows, generateAsset(partitions[asset], w)...)
	}
	return rows
}

func generateAsset(points []domain.PricePoint, w Windows) []domain.FeatureRow {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].ObservedAt.Before(points[j].ObservedAt)
	})

	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}

	short := formulas.TrailingSMA(prices, w.Short)
	long := formulas.TrailingSMA(prices, w.Long)
	pct := formulas.PctChange(prices)
	target := formulas.ShiftForward(prices)

	rows := make([]domain.FeatureRow, len(points))
	for i, p := range points {
		rows[i] = domain.FeatureRow{
			AssetID:        p.AssetID,
			ObservedAt:     p.ObservedAt,
			Price:          p.Price,
			MovingAvgShort: short[i],
			MovingAvgLong:  long[i],
			PctChange1:     pct[i],
			ForwardTarget:  target[i],
		}
	}
	return rows
}

// Persistable keeps rows whose model inputs are all defined.
// Rows lacking only the forward target stay, since inference needs them.
func Persistable(rows []domain.FeatureRow) []domain.FeatureRow {
	out := make([]domain.FeatureRow, 0, len(rows))
	for _, r := range rows {
		if r.HasFeatures() {
			out = append(out, r)
		}
	}
	return out
}

// LaggingAssets returns, sorted, the assets whose newest persistable row is older
// than their newest generated row. Forecasts for them are anchored on that older row.
// Assets with no persistable rows at all are not reported.
func LaggingAssets(generated, persisted []domain.FeatureRow) []string {
	newest := LatestByAsset(generated)
	var lagging []string
	for asset, kept := range LatestByAsset(persisted) {
		if newest[asset].ObservedAt.After(kept.ObservedAt) {
			lagging = append(lagging, asset)
		}
	}
	sort.Strings(lagging)
	return lagging
}

// Complete keeps rows usable for training
func Complete(rows []domain.FeatureRow) []domain.FeatureRow {
	out := make([]domain.FeatureRow, 0, len(rows))
	for _, r := range rows {
		if r.IsComplete() {
			out = append(out, r)
		}
	}
	return out
}

// GroupByAsset splits rows per asset, preserving order within each asset
func GroupByAsset(rows []domain.FeatureRow) map[string][]domain.FeatureRow {
	groups := make(map[string][]domain.FeatureRow)
	for _, r := range rows {
		groups[r.AssetID] = append(groups[r.AssetID], r)
	}
	return groups
}

// LatestByAsset returns the most recent row of every asset.
// Among rows sharing the newest timestamp the last one in order wins.
func LatestByAsset(rows []domain.FeatureRow) map[string]domain.FeatureRow {
	latest := make(map[string]domain.FeatureRow)
	for _, r := range rows {
		if cur, ok := latest[r.AssetID]; !ok || !r.ObservedAt.Before(cur.ObservedAt) {
			latest[r.AssetID] = r
		}
	}
	return latest
}

// Assets returns the sorted distinct asset ids in rows
func Assets(rows []domain.FeatureRow) []string {
	seen := make(map[string]struct{})
	var assets []string
	for _, r := range rows {
		if _, ok := seen[r.AssetID]; !ok {
			seen[r.AssetID] = struct{}{}
			assets = append(assets, r.AssetID)
		}
	}
	sort.Strings(assets)
	return assets
}
