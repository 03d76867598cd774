package handlers

import (
	"net/http"

	"github.com/aristath/pricecast/internal/utils"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers asset and feature routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/assets", h.HandleGetAssets)
	r.Get("/features/{asset}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetFeatures(w, r, utils.NormalizeAssetID(chi.URLParam(r, "asset")))
	})
}
