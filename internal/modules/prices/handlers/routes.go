package handlers

import (
	"net/http"

	"github.com/aristath/pricecast/internal/utils"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/prices/{asset}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetPrices(w, r, utils.NormalizeAssetID(chi.URLParam(r, "asset")))
	})
}
