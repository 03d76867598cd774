// Package handlers provides HTTP handlers for persisted model metadata.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/features"
	"github.com/aristath/pricecast/internal/modules/training"
	"github.com/rs/zerolog"
)

// ModelCatalog reads persisted models
type ModelCatalog interface {
	Load(assetID string) (*training.LinearModel, error)
	List() ([]string, error)
}

// Handler handles model HTTP requests
type Handler struct {
	models   ModelCatalog
	features features.Store
	log      zerolog.Logger
}

// NewHandler creates a new model handler
func NewHandler(models ModelCatalog, featureStore features.Store, log zerolog.Logger) *Handler {
	return &Handler{
		models:   models,
		features: featureStore,
		log:      log.With().Str("handler", "models").Logger(),
	}
}

// ModelResponse is the public view of a persisted model
type ModelResponse struct {
	AssetID      string    `json:"asset_id"`
	TrainedAt    time.Time `json:"trained_at"`
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Lambda       float64   `json:"lambda"`
	MAE          *float64  `json:"mae"`
	R2           *float64  `json:"r2"`
	TrainSize    int       `json:"train_size"`
	TestSize     int       `json:"test_size"`
}

// HandleListModels handles GET /api/models
func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	assets, err := h.models.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list models")
		http.Error(w, "Failed to list models", http.StatusInternalServerError)
		return
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

// HandleGetModel handles GET /api/models/{asset}
func (h *Handler) HandleGetModel(w http.ResponseWriter, r *http.Request, assetID string) {
	model, err := h.models.Load(assetID)
	switch {
	case errors.Is(err, training.ErrInvalidAssetID):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, training.ErrModelNotFound):
		h.writeMissing(w, err, assetID)
		return
	case err != nil:
		h.log.Error().Err(err).Str("asset", assetID).Msg("Failed to load model")
		http.Error(w, "Failed to load model", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": toResponse(model),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeMissing answers 404 for assets absent from the feature artifact and 503
// for known assets that are still waiting for enough history to train
func (h *Handler) writeMissing(w http.ResponseWriter, err error, assetID string) {
	rows, loadErr := h.features.Load()
	if loadErr != nil {
		h.log.Error().Err(loadErr).Msg("Failed to load feature artifact")
		http.Error(w, "Failed to load model", http.StatusInternalServerError)
		return
	}
	if _, known := features.LatestByAsset(rows)[assetID]; !known {
		http.Error(w, "unknown asset: "+assetID, http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusServiceUnavailable)
}

// finite drops NaN/Inf, which JSON cannot carry
func finite(v float64) *float64 {
	if !domain.IsFinite(v) {
		return nil
	}
	return domain.Float(v)
}

func toResponse(m *training.LinearModel) ModelResponse {
	return ModelResponse{
		AssetID:      m.AssetID,
		TrainedAt:    m.TrainedAt,
		FeatureNames: m.FeatureNames,
		Coefficients: m.Coefficients,
		Intercept:    m.Intercept,
		Lambda:       m.Lambda,
		MAE:          finite(m.Metrics.MAE),
		R2:           finite(m.Metrics.R2),
		TrainSize:    m.Metrics.TrainSize,
		TestSize:     m.Metrics.TestSize,
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
