package handlers

import (
	"net/http"

	"github.com/aristath/pricecast/internal/utils"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all reconciliation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reconciliation", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetReport(w, r, "")
		})
		r.Get("/{asset}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetReport(w, r, utils.NormalizeAssetID(chi.URLParam(r, "asset")))
		})
	})
}
