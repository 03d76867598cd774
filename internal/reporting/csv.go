// Package reporting renders pipeline views as CSV exports.
package reporting

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/aristath/pricecast/internal/domain"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil || !domain.IsFinite(*v) {
		return ""
	}
	return formatFloat(*v)
}

func formatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.RFC3339)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteForecasts renders ledger rows
func WriteForecasts(w io.Writer, records []domain.ForecastRecord, loc *time.Location) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.AssetID,
			formatTime(r.ForecastFor, loc),
			formatFloat(r.PriceAtForecastTime),
			formatFloat(r.PredictedPrice),
		}
	}
	return writeAll(w, []string{"asset_id", "forecast_for", "price_at_forecast_time", "predicted_price"}, rows)
}

// WriteReconciled renders reconciled rows; undefined relative errors are left blank
func WriteReconciled(w io.Writer, records []domain.ReconciledRecord, loc *time.Location) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			formatTime(r.ForecastFor, loc),
			r.AssetID,
			formatTime(r.ObservedAt, loc),
			formatFloat(r.RealizedPrice),
			formatFloat(r.PredictedPrice),
			formatFloat(r.AbsoluteError),
			formatOptional(r.RelativeError),
		}
	}
	return writeAll(w, []string{"forecast_for", "asset_id", "observed_at", "realized_price", "predicted_price", "absolute_error", "relative_error"}, rows)
}

// WritePrices renders realized price samples
func WritePrices(w io.Writer, points []domain.PricePoint, loc *time.Location) error {
	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{
			p.AssetID,
			p.Name,
			formatTime(p.ObservedAt, loc),
			formatFloat(p.Price),
			formatOptional(p.MarketCap),
		}
	}
	return writeAll(w, []string{"asset_id", "name", "observed_at", "price", "market_cap"}, rows)
}
