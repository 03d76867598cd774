// Package handlers provides HTTP handlers for reconciliation reports.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/pricecast/internal/modules/reconciliation"
	"github.com/aristath/pricecast/internal/reporting"
	"github.com/aristath/pricecast/internal/utils"
	"github.com/rs/zerolog"
)

// ReportBuilder builds reconciliation reports
type ReportBuilder interface {
	Report(ctx context.Context, req reconciliation.Request) (*reconciliation.Report, error)
}

// Handler handles reconciliation HTTP requests
type Handler struct {
	reports   ReportBuilder
	tolerance time.Duration
	loc       *time.Location
	log       zerolog.Logger
}

// NewHandler creates a new reconciliation handler. tolerance applies when the
// request does not override it.
func NewHandler(reports ReportBuilder, tolerance time.Duration, loc *time.Location, log zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		reports:   reports,
		tolerance: tolerance,
		loc:       loc,
		log:       log.With().Str("handler", "reconciliation").Logger(),
	}
}

// HandleGetReport handles GET /api/reconciliation and GET /api/reconciliation/{asset}
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request, assetID string) {
	query := r.URL.Query()

	from, err := utils.ParseTimeParam(query.Get("from"), h.loc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := utils.ParseTimeParam(query.Get("to"), h.loc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tolerance, err := parseTolerance(query.Get("tolerance"), h.tolerance)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.reports.Report(r.Context(), reconciliation.Request{
		AssetID:   assetID,
		From:      from,
		To:        to,
		Tolerance: tolerance,
	})
	if err != nil {
		h.log.Error().Err(err).Str("asset", assetID).Msg("Failed to build reconciliation report")
		http.Error(w, "Failed to build reconciliation report", http.StatusInternalServerError)
		return
	}

	if query.Get("format") == "csv" {
		name := "reconciliation.csv"
		if assetID != "" {
			name = assetID + "_reconciliation.csv"
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		if err := reporting.WriteReconciled(w, report.Records, h.loc); err != nil {
			h.log.Error().Err(err).Str("asset", assetID).Msg("Failed to write reconciliation CSV")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// parseTolerance accepts a Go duration ("10m", "90s") or a bare number of minutes
func parseTolerance(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		if minutes < 0 {
			return 0, fmt.Errorf("tolerance must not be negative")
		}
		return time.Duration(minutes) * time.Minute, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid tolerance %q", value)
	}
	if d < 0 {
		return 0, fmt.Errorf("tolerance must not be negative")
	}
	return d, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
