package handlers

import (
	"net/http"

	"github.com/aristath/pricecast/internal/utils"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all forecast routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/forecasts/{asset}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetHistory(w, r, utils.NormalizeAssetID(chi.URLParam(r, "asset")))
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			h.HandleCreateForecast(w, r, utils.NormalizeAssetID(chi.URLParam(r, "asset")))
		})
		r.Get("/latest", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetLatest(w, r, utils.NormalizeAssetID(chi.URLParam(r, "asset")))
		})
	})
}
