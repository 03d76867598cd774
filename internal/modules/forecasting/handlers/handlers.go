// Package handlers provides HTTP handlers for the forecast read surface.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/forecasting"
	"github.com/aristath/pricecast/internal/modules/training"
	"github.com/aristath/pricecast/internal/reporting"
	"github.com/aristath/pricecast/internal/utils"
	"github.com/rs/zerolog"
)

// ForecastReader serves ledger views
type ForecastReader interface {
	History(assetID string, from, to time.Time) ([]domain.ForecastRecord, error)
	Latest(assetID string) (*domain.ForecastRecord, error)
}

// OnDemandForecaster produces a forecast outside the cycle
type OnDemandForecaster interface {
	ForecastAsset(ctx context.Context, assetID string) (*domain.ForecastRecord, error)
}

// Handler handles forecast HTTP requests
type Handler struct {
	reader     ForecastReader
	forecaster OnDemandForecaster
	loc        *time.Location
	log        zerolog.Logger
}

// NewHandler creates a new forecast handler. loc is the display timezone for
// time filters and CSV output.
func NewHandler(reader ForecastReader, forecaster OnDemandForecaster, loc *time.Location, log zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		reader:     reader,
		forecaster: forecaster,
		loc:        loc,
		log:        log.With().Str("handler", "forecasts").Logger(),
	}
}

// HandleGetHistory handles GET /api/forecasts/{asset}
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request, assetID string) {
	from, err := utils.ParseTimeParam(r.URL.Query().Get("from"), h.loc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := utils.ParseTimeParam(r.URL.Query().Get("to"), h.loc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.reader.History(assetID, from, to)
	if err != nil {
		h.writeError(w, err, assetID)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", assetID+"_forecasts.csv"))
		if err := reporting.WriteForecasts(w, records, h.loc); err != nil {
			h.log.Error().Err(err).Str("asset", assetID).Msg("Failed to write forecast CSV")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"asset_id":  assetID,
			"forecasts": records,
			"count":     len(records),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetLatest handles GET /api/forecasts/{asset}/latest
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request, assetID string) {
	record, err := h.reader.Latest(assetID)
	if err != nil {
		h.writeError(w, err, assetID)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": record,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCreateForecast handles POST /api/forecasts/{asset}
func (h *Handler) HandleCreateForecast(w http.ResponseWriter, r *http.Request, assetID string) {
	record, err := h.forecaster.ForecastAsset(r.Context(), assetID)
	if err != nil {
		h.writeError(w, err, assetID)
		return
	}

	h.log.Info().
		Str("asset", assetID).
		Time("forecast_for", record.ForecastFor).
		Float64("predicted_price", record.PredictedPrice).
		Msg("On-demand forecast recorded")

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": record,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeError maps domain errors to status codes
func (h *Handler) writeError(w http.ResponseWriter, err error, assetID string) {
	switch {
	case errors.Is(err, training.ErrInvalidAssetID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, forecasting.ErrUnknownAsset), errors.Is(err, forecasting.ErrNoForecasts):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, training.ErrModelNotFound):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, forecasting.ErrIncompleteFeatures):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Str("asset", assetID).Msg("Forecast request failed")
		http.Error(w, "Failed to serve forecast", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
