package training

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/features"
	"github.com/aristath/pricecast/internal/utils"
	"github.com/rs/zerolog"
)

// Status is the per-asset result of a training run
type Status string

const (
	StatusTrained                 Status = "trained"
	StatusSkippedInsufficientData Status = "skipped_insufficient_data"
	StatusFailed                  Status = "failed"
)

// Outcome reports what happened to one asset.
// Metrics is set only for StatusTrained; Err only for StatusFailed.
type Outcome struct {
	AssetID string   `json:"asset_id"`
	Status  Status   `json:"status"`
	Samples int      `json:"samples"`
	Metrics *Metrics `json:"metrics,omitempty"`
	Err     error    `json:"-"`
}

// Policy holds the training policy values
type Policy struct {
	MinSamples   int
	TestFraction float64
	Lambda       float64
}

// DefaultPolicy trains on at least 10 complete rows with an 80/20 chronological split
var DefaultPolicy = Policy{MinSamples: 10, TestFraction: 0.2, Lambda: 1e-6}

// Trainer fits one model per asset from the feature artifact
type Trainer struct {
	features features.Store
	models   ModelStore
	policy   Policy
	log      zerolog.Logger
	now      func() time.Time
}

// NewTrainer creates a new trainer
func NewTrainer(featureStore features.Store, models ModelStore, policy Policy, log zerolog.Logger) *Trainer {
	return &Trainer{
		features: featureStore,
		models:   models,
		policy:   policy,
		log:      log.With().Str("component", "trainer").Logger(),
		now:      time.Now,
	}
}

// Run loads the feature artifact and trains every asset in it.
// Only an unreadable artifact is an error; per-asset problems are reported as outcomes.
func (t *Trainer) Run(ctx context.Context) ([]Outcome, error) {
	defer utils.OperationTimer("train", t.log)()

	rows, err := t.features.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load feature artifact: %w", err)
	}
	return t.TrainAll(ctx, rows), nil
}

// TrainAll trains every asset present in rows, in asset order
func (t *Trainer) TrainAll(ctx context.Context, rows []domain.FeatureRow) []Outcome {
	groups := features.GroupByAsset(rows)
	assets := make([]string, 0, len(groups))
	for asset := range groups {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	outcomes := make([]Outcome, 0, len(assets))
	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{AssetID: asset, Status: StatusFailed, Err: err})
			continue
		}
		outcome := t.TrainAsset(asset, groups[asset])
		t.logOutcome(outcome)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// TrainAsset fits and persists the model for one asset.
// With fewer complete rows than the policy minimum the stored model is left untouched.
func (t *Trainer) TrainAsset(assetID string, rows []domain.FeatureRow) Outcome {
	complete := features.Complete(rows)
	outcome := Outcome{AssetID: assetID, Samples: len(complete)}

	if len(complete) < t.policy.MinSamples {
		outcome.Status = StatusSkippedInsufficientData
		return outcome
	}

	trainRows, testRows := ChronologicalSplit(complete, t.policy.TestFraction)
	xTrain, yTrain := designMatrix(trainRows)
	xTest, yTest := designMatrix(testRows)

	model, err := Fit(xTrain, yTrain, t.policy.Lambda)
	if err != nil {
		return failed(outcome, fmt.Errorf("fit: %w", err))
	}

	mae, r2, err := Evaluate(model, xTest, yTest)
	if err != nil {
		return failed(outcome, fmt.Errorf("evaluate: %w", err))
	}

	model.AssetID = assetID
	model.TrainedAt = t.now().UTC()
	model.Metrics = Metrics{MAE: mae, R2: r2, TrainSize: len(trainRows), TestSize: len(testRows)}

	if err := t.models.Save(model); err != nil {
		return failed(outcome, fmt.Errorf("save: %w", err))
	}

	outcome.Status = StatusTrained
	outcome.Metrics = &model.Metrics
	return outcome
}

func failed(o Outcome, err error) Outcome {
	o.Status = StatusFailed
	o.Err = err
	return o
}

func (t *Trainer) logOutcome(o Outcome) {
	switch o.Status {
	case StatusTrained:
		t.log.Info().
			Str("asset", o.AssetID).
			Int("samples", o.Samples).
			Float64("mae", o.Metrics.MAE).
			Float64("r2", o.Metrics.R2).
			Msg("Model trained")
	case StatusSkippedInsufficientData:
		t.log.Info().
			Str("asset", o.AssetID).
			Int("samples", o.Samples).
			Int("required", t.policy.MinSamples).
			Msg("Insufficient data, keeping previous model")
	case StatusFailed:
		t.log.Error().Err(o.Err).Str("asset", o.AssetID).Msg("Training failed")
	}
}

// ChronologicalSplit returns the leading rows for training and the trailing
// ceil(fraction*n) rows for evaluation, never shuffling. Both parts are non-empty when n >= 2.
func ChronologicalSplit(rows []domain.FeatureRow, fraction float64) (train, test []domain.FeatureRow) {
	n := len(rows)
	if n < 2 {
		return rows, nil
	}
	testSize := int(math.Ceil(fraction * float64(n)))
	if testSize < 1 {
		testSize = 1
	}
	if testSize >= n {
		testSize = n - 1
	}
	return rows[:n-testSize], rows[n-testSize:]
}

func designMatrix(rows []domain.FeatureRow) ([][]float64, []float64) {
	x := make([][]float64, 0, len(rows))
	y := make([]float64, 0, len(rows))
	for _, r := range rows {
		vec, ok := r.FeatureVector()
		if !ok || r.ForwardTarget == nil {
			continue
		}
		x = append(x, vec)
		y = append(y, *r.ForwardTarget)
	}
	return x, y
}
