// Package handlers provides HTTP handlers for realized price exports.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/pricecast/internal/modules/prices"
	"github.com/aristath/pricecast/internal/reporting"
	"github.com/aristath/pricecast/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles price HTTP requests
type Handler struct {
	source prices.Source
	loc    *time.Location
	log    zerolog.Logger
}

// NewHandler creates a new price handler
func NewHandler(source prices.Source, loc *time.Location, log zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		source: source,
		loc:    loc,
		log:    log.With().Str("handler", "prices").Logger(),
	}
}

// HandleGetPrices handles GET /api/prices/{asset}
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request, assetID string) {
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

	points, err := h.source.Find(r.Context(), prices.Query{AssetID: assetID, From: from, To: to})
	if err != nil {
		h.log.Error().Err(err).Str("asset", assetID).Msg("Failed to get prices")
		http.Error(w, "Failed to get prices", http.StatusInternalServerError)
		return
	}
	if len(points) == 0 {
		http.Error(w, fmt.Sprintf("%s: %s", prices.ErrNoPriceData, assetID), http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", assetID+"_prices.csv"))
		if err := reporting.WritePrices(w, points, h.loc); err != nil {
			h.log.Error().Err(err).Str("asset", assetID).Msg("Failed to write price CSV")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"asset_id": assetID,
			"prices":   points,
			"count":    len(points),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
