// Package handlers provides HTTP handlers for the feature artifact.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/features"
	"github.com/rs/zerolog"
)

// Handler handles asset and feature HTTP requests
type Handler struct {
	store features.Store
	log   zerolog.Logger
}

// NewHandler creates a new feature handler
func NewHandler(store features.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "features").Logger(),
	}
}

// HandleGetAssets handles GET /api/assets
func (h *Handler) HandleGetAssets(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.Load()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load feature artifact")
		http.Error(w, "Failed to load assets", http.StatusInternalServerError)
		return
	}

	assets := features.Assets(rows)
	if assets == nil {
		assets = []string{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"assets": assets,
			"count":  len(assets),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetFeatures handles GET /api/features/{asset}
func (h *Handler) HandleGetFeatures(w http.ResponseWriter, r *http.Request, assetID string) {
	rows, err := h.store.Load()
	if err != nil {
		h.log.Error().Err(err).Str("asset", assetID).Msg("Failed to load feature artifact")
		http.Error(w, "Failed to load features", http.StatusInternalServerError)
		return
	}

	assetRows := features.GroupByAsset(rows)[assetID]
	if len(assetRows) == 0 {
		http.Error(w, "unknown asset: "+assetID, http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"asset_id": assetID,
			"features": assetRows,
			"complete": len(features.Complete(assetRows)),
			"count":    len(assetRows),
			"schema":   domain.FeatureNames,
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
