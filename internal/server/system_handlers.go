package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/pricecast/internal/artifacts"
	"github.com/aristath/pricecast/internal/database"
	"github.com/aristath/pricecast/internal/di"
	"github.com/aristath/pricecast/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// CycleRunner runs pipeline cycles on demand and remembers the last one
type CycleRunner interface {
	RunCycle(ctx context.Context) (*scheduler.CycleResult, error)
	LastResult() *scheduler.CycleResult
}

// ArtifactReporter describes one artifact on disk
type ArtifactReporter interface {
	Info() (artifacts.Info, error)
}

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	cycle       CycleRunner
	priceDB     *database.DB
	artifacts   []ArtifactReporter
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, container *di.Container, cycle CycleRunner) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		cycle:       cycle,
		priceDB:     container.PriceDB,
		artifacts: []ArtifactReporter{
			container.FeatureStore,
			container.ModelStore,
			container.Ledger,
		},
	}
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string                 `json:"status"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	CPUPercent    float64                `json:"cpu_percent"`
	RAMPercent    float64                `json:"ram_percent"`
	PriceStore    *database.Stats        `json:"price_store,omitempty"`
	LastCycle     *scheduler.CycleResult `json:"last_cycle"`
}

// ArtifactsResponse lists artifact diagnostics
type ArtifactsResponse struct {
	Artifacts   []artifacts.Info `json:"artifacts"`
	LastChecked string           `json:"last_checked"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		LastCycle:     h.cycle.LastResult(),
	}

	if h.priceDB != nil {
		stats, err := h.priceDB.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to get price store stats")
			response.Status = "degraded"
		} else {
			response.PriceStore = stats
		}
	}
	if response.LastCycle != nil && response.LastCycle.Error != "" {
		response.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, response, h.log)
}

// HandleArtifacts handles GET /api/system/artifacts
func (h *SystemHandlers) HandleArtifacts(w http.ResponseWriter, r *http.Request) {
	infos := make([]artifacts.Info, 0, len(h.artifacts))
	for _, a := range h.artifacts {
		info, err := a.Info()
		if err != nil {
			// Report what was gathered; a corrupt file still shows its path and size
			h.log.Warn().Err(err).Str("artifact", info.Name).Msg("Failed to inspect artifact")
		}
		infos = append(infos, info)
	}

	writeJSON(w, http.StatusOK, ArtifactsResponse{
		Artifacts:   infos,
		LastChecked: time.Now().Format(time.RFC3339),
	}, h.log)
}

// HandleTriggerCycle handles POST /api/jobs/cycle.
// The cycle runs synchronously; a cycle already in progress yields 409.
func (h *SystemHandlers) HandleTriggerCycle(w http.ResponseWriter, r *http.Request) {
	h.log.Info().Msg("Manual cycle triggered")

	result, err := h.cycle.RunCycle(r.Context())
	if errors.Is(err, scheduler.ErrCycleRunning) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}, h.log)
}

// getSystemStats returns CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// Sample over 100ms to keep the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
