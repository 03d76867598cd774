// Package formulas holds the rolling-window series calculations used to build features.
package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// TrailingSMA returns the simple moving average over the last `length` points
// (inclusive of the current one) for every index. Entries without enough history are nil.
func TrailingSMA(values []float64, length int) []*float64 {
	out := make([]*float64, len(values))
	if length < 1 || len(values) < length {
		return out
	}

	sma := talib.Sma(values, length)
	for i := length - 1; i < len(values) && i < len(sma); i++ {
		if !isNaN(sma[i]) {
			v := sma[i]
			out[i] = &v
		}
	}
	return out
}

// PctChange returns (v[t]-v[t-1])/v[t-1] for every index.
// The first entry, and any entry whose previous value is zero, is nil.
func PctChange(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		v := (values[i] - prev) / prev
		out[i] = &v
	}
	return out
}

// ShiftForward returns v[t+1] for every index; the last entry is nil.
func ShiftForward(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := 0; i+1 < len(values); i++ {
		v := values[i+1]
		out[i] = &v
	}
	return out
}

// MeanAbsoluteError returns the mean of |predicted - actual|.
func MeanAbsoluteError(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	sum := 0.0
	for i := range actual {
		sum += math.Abs(predicted[i] - actual[i])
	}
	return sum / float64(len(actual))
}

func isNaN(f float64) bool {
	return f != f
}
