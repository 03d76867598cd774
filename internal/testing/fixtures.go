package testing

import (
	"time"

	"github.com/aristath/pricecast/internal/domain"
)

// BaseTime is the first sample time used by fixtures
var BaseTime = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// PriceSeries builds evenly spaced price points for one asset starting at BaseTime
func PriceSeries(assetID string, step time.Duration, prices ...float64) []domain.PricePoint {
	points := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{
			AssetID:    assetID,
			Price:      p,
			ObservedAt: BaseTime.Add(time.Duration(i) * step),
		}
	}
	return points
}

// LinearPrices returns n prices starting at start and increasing by delta
func LinearPrices(n int, start, delta float64) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = start + float64(i)*delta
	}
	return prices
}

// WavePrices returns n prices oscillating around base so regressions have variance in every input
func WavePrices(n int, base float64) []float64 {
	pattern := []float64{0, 1.5, -0.5, 2, 3, 1, 4, 5, 3.5, 6}
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = base + pattern[i%len(pattern)] + float64(i/len(pattern))*2
	}
	return prices
}
