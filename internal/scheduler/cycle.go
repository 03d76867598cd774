package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/pricecast/internal/modules/features"
	"github.com/aristath/pricecast/internal/modules/forecasting"
	"github.com/aristath/pricecast/internal/modules/training"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrCycleRunning is returned when a cycle is requested while another is in progress
var ErrCycleRunning = errors.New("cycle already running")

// PriceCollector appends fresh samples to the price store
type PriceCollector interface {
	Run(ctx context.Context) (int, error)
}

// FeatureBuilder rebuilds the feature artifact
type FeatureBuilder interface {
	Run(ctx context.Context) (*features.Result, error)
}

// ModelTrainer retrains per-asset models from the feature artifact
type ModelTrainer interface {
	Run(ctx context.Context) ([]training.Outcome, error)
}

// ForecastProducer forecasts every asset and merges the results into the ledger
type ForecastProducer interface {
	Run(ctx context.Context) ([]forecasting.Outcome, error)
}

// ArtifactMirror copies the artifacts off-host
type ArtifactMirror interface {
	Snapshot(ctx context.Context) (string, error)
}

// CycleResult records what one cycle did
type CycleResult struct {
	ID         string                `json:"id"`
	StartedAt  time.Time             `json:"started_at"`
	DurationMs int64                 `json:"duration_ms"`
	Collected  *int                  `json:"collected,omitempty"`
	Features   *features.Result      `json:"features,omitempty"`
	Training   []training.Outcome    `json:"training,omitempty"`
	Forecasts  []forecasting.Outcome `json:"forecasts,omitempty"`
	MirrorKey  string                `json:"mirror_key,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// CycleConfig holds the stages of a cycle. Collector and Mirror are optional.
type CycleConfig struct {
	Log       zerolog.Logger
	Collector PriceCollector
	Features  FeatureBuilder
	Trainer   ModelTrainer
	Forecasts ForecastProducer
	Mirror    ArtifactMirror
}

// CycleJob runs collect, features, train, forecast and mirror in order.
// At most one cycle runs at a time.
type CycleJob struct {
	log       zerolog.Logger
	collector PriceCollector
	features  FeatureBuilder
	trainer   ModelTrainer
	forecasts ForecastProducer
	mirror    ArtifactMirror

	running sync.Mutex

	mu   sync.RWMutex
	last *CycleResult
}

// NewCycleJob creates a new cycle job
func NewCycleJob(cfg CycleConfig) *CycleJob {
	return &CycleJob{
		log:       cfg.Log.With().Str("job", "pipeline_cycle").Logger(),
		collector: cfg.Collector,
		features:  cfg.Features,
		trainer:   cfg.Trainer,
		forecasts: cfg.Forecasts,
		mirror:    cfg.Mirror,
	}
}

// Name returns the job name
func (j *CycleJob) Name() string {
	return "pipeline_cycle"
}

// Run executes a cycle for the scheduler. An overlapping tick is skipped, not failed.
func (j *CycleJob) Run() error {
	_, err := j.RunCycle(context.Background())
	if errors.Is(err, ErrCycleRunning) {
		j.log.Warn().Msg("Previous cycle still running, skipping tick")
		return nil
	}
	return err
}

// LastResult returns the most recent finished cycle, or nil before the first one
func (j *CycleJob) LastResult() *CycleResult {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}

// RunCycle executes one full cycle
func (j *CycleJob) RunCycle(ctx context.Context) (*CycleResult, error) {
	if !j.running.TryLock() {
		return nil, ErrCycleRunning
	}
	defer j.running.Unlock()

	result := &CycleResult{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := j.log.With().Str("cycle_id", result.ID).Logger()
	log.Info().Msg("Starting cycle")

	err := j.runStages(ctx, log, result)

	result.DurationMs = time.Since(result.StartedAt).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		log.Error().Err(err).Int64("duration_ms", result.DurationMs).Msg("Cycle failed")
	} else {
		log.Info().Int64("duration_ms", result.DurationMs).Msg("Cycle completed")
	}

	j.mu.Lock()
	j.last = result
	j.mu.Unlock()

	return result, err
}

func (j *CycleJob) runStages(ctx context.Context, log zerolog.Logger, result *CycleResult) error {
	// Step 1: Collect fresh prices (non-critical, later stages use stored prices)
	if j.collector != nil {
		n, err := j.collector.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Price collection failed, continuing with stored prices")
		} else {
			result.Collected = &n
		}
	}

	// Step 2: Rebuild features (CRITICAL)
	featureResult, err := j.features.Run(ctx)
	if err != nil {
		return fmt.Errorf("feature stage failed: %w", err)
	}
	result.Features = featureResult

	// Step 3: Retrain models (CRITICAL)
	trained, err := j.trainer.Run(ctx)
	if err != nil {
		return fmt.Errorf("training stage failed: %w", err)
	}
	result.Training = trained

	// Step 4: Forecast and merge into the ledger (CRITICAL)
	forecasts, err := j.forecasts.Run(ctx)
	if err != nil {
		return fmt.Errorf("forecast stage failed: %w", err)
	}
	result.Forecasts = forecasts

	// Step 5: Mirror artifacts (non-critical)
	if j.mirror != nil {
		key, err := j.mirror.Snapshot(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Artifact mirror failed")
		} else {
			result.MirrorKey = key
		}
	}

	return nil
}
