package handlers

import (
	"net/http"

	"github.com/aristath/pricecast/internal/utils"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all model routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/models", func(r chi.Router) {
		r.Get("/", h.HandleListModels)
		r.Get("/{asset}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetModel(w, r, utils.NormalizeAssetID(chi.URLParam(r, "asset")))
		})
	})
}
