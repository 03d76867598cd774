package features

import (
	"context"
	"fmt"

	"github.com/aristath/pricecast/internal/modules/prices"
	"github.com/aristath/pricecast/internal/utils"
	"github.com/rs/zerolog"
)

// Result summarizes one feature generation run
type Result struct {
	Samples  int            `json:"samples"`
	Rows     int            `json:"rows"`
	PerAsset map[string]int `json:"per_asset"`
	Lagging  []string       `json:"lagging,omitempty"`
}

// Service recomputes the feature artifact from the price store
type Service struct {
	source  prices.Source
	store   Store
	windows Windows
	log     zerolog.Logger
}

// NewService creates a new feature generation service
func NewService(source prices.Source, store Store, windows Windows, log zerolog.Logger) *Service {
	return &Service{
		source:  source,
		store:   store,
		windows: windows,
		log:     log.With().Str("component", "features").Logger(),
	}
}

// Run reads every price sample, derives features and overwrites the artifact.
// An empty price store produces an empty artifact.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	defer utils.OperationTimer("features", s.log)()

	points, err := s.source.Find(ctx, prices.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to load price points: %w", err)
	}

	generated := Generate(points, s.windows)
	rows := Persistable(generated)
	if err := s.store.Save(rows); err != nil {
		return nil, fmt.Errorf("failed to save feature artifact: %w", err)
	}

	result := &Result{Samples: len(points), Rows: len(rows), PerAsset: make(map[string]int)}
	for asset, group := range GroupByAsset(rows) {
		result.PerAsset[asset] = len(group)
	}

	result.Lagging = LaggingAssets(generated, rows)
	for _, asset := range result.Lagging {
		s.log.Warn().
			Str("asset", asset).
			Msg("Newest sample has undefined features, latest feature row is older")
	}

	if len(points) == 0 {
		s.log.Warn().Msg("Price store is empty, wrote empty feature artifact")
	}
	s.log.Info().
		Int("samples", result.Samples).
		Int("rows", result.Rows).
		Int("assets", len(result.PerAsset)).
		Msg("Feature artifact updated")

	return result, nil
}
