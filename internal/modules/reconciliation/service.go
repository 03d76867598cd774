package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/forecasting"
	"github.com/aristath/pricecast/internal/modules/prices"
)

// Request selects the forecasts to reconcile. Zero bounds are open; an empty
// AssetID means every asset.
type Request struct {
	AssetID   string
	From      time.Time
	To        time.Time
	Tolerance time.Duration
}

// Report is the reconciled view plus its summary
type Report struct {
	AssetID   string                    `json:"asset_id,omitempty"`
	Tolerance string                    `json:"tolerance"`
	Records   []domain.ReconciledRecord `json:"records"`
	Summary   Summary                   `json:"summary"`
}

// Service builds reconciliation reports on demand. Nothing is persisted.
type Service struct {
	ledger forecasting.Ledger
	prices prices.Source
}

// NewService creates a new reconciliation service
func NewService(ledger forecasting.Ledger, source prices.Source) *Service {
	return &Service{ledger: ledger, prices: source}
}

// Report reconciles the ledger against the price store
func (s *Service) Report(ctx context.Context, req Request) (*Report, error) {
	if req.Tolerance < 0 {
		return nil, fmt.Errorf("tolerance must not be negative")
	}

	all, err := s.ledger.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	var forecasts []domain.ForecastRecord
	for _, f := range all {
		if req.AssetID != "" && f.AssetID != req.AssetID {
			continue
		}
		if !req.From.IsZero() && f.ForecastFor.Before(req.From) {
			continue
		}
		if !req.To.IsZero() && f.ForecastFor.After(req.To) {
			continue
		}
		forecasts = append(forecasts, f)
	}

	q := prices.Query{AssetID: req.AssetID, To: req.To}
	if !req.From.IsZero() {
		q.From = req.From.Add(-req.Tolerance)
	}
	realized, err := s.prices.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load realized prices: %w", err)
	}

	records := Reconcile(forecasts, realized, req.Tolerance)
	if records == nil {
		records = []domain.ReconciledRecord{}
	}
	return &Report{
		AssetID:   req.AssetID,
		Tolerance: req.Tolerance.String(),
		Records:   records,
		Summary:   Summarize(records),
	}, nil
}
