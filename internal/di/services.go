package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aristath/pricecast/internal/clients/coingecko"
	"github.com/aristath/pricecast/internal/config"
	"github.com/aristath/pricecast/internal/modules/collector"
	"github.com/aristath/pricecast/internal/modules/features"
	"github.com/aristath/pricecast/internal/modules/forecasting"
	"github.com/aristath/pricecast/internal/modules/reconciliation"
	"github.com/aristath/pricecast/internal/modules/training"
	"github.com/aristath/pricecast/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates artifact handles, pipeline stages and read-side services
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.Prices == nil {
		return fmt.Errorf("price store must be initialized first")
	}

	// Artifacts
	container.FeatureStore = features.NewParquetStore(filepath.Join(cfg.DataDir, FeaturesFile))
	container.ModelStore = training.NewFileModelStore(filepath.Join(cfg.DataDir, ModelsDir))
	container.Ledger = forecasting.NewParquetLedger(filepath.Join(cfg.DataDir, LedgerFile))

	// Collector (optional)
	container.CoinGeckoClient = coingecko.NewClient(cfg.Collector.BaseURL, log)
	if cfg.Collector.Enabled {
		container.Collector = collector.New(container.CoinGeckoClient, container.Prices, cfg.Collector.Assets, log)
	}

	// Pipeline stages
	container.FeatureService = features.NewService(
		container.Prices,
		container.FeatureStore,
		features.Windows{Short: cfg.Pipeline.ShortWindow, Long: cfg.Pipeline.LongWindow},
		log,
	)
	container.Trainer = training.NewTrainer(
		container.FeatureStore,
		container.ModelStore,
		training.Policy{
			MinSamples:   cfg.Pipeline.MinTrainingSamples,
			TestFraction: cfg.Pipeline.TestFraction,
			Lambda:       cfg.Pipeline.RidgeLambda,
		},
		log,
	)
	container.Forecaster = forecasting.NewForecaster(
		container.FeatureStore,
		container.ModelStore,
		container.Ledger,
		cfg.Pipeline.SamplingStep,
		log,
	)

	// Read side
	container.ForecastReader = forecasting.NewReader(container.FeatureStore, container.ModelStore, container.Ledger)
	container.ReconciliationService = reconciliation.NewService(container.Ledger, container.Prices)

	// Artifact mirror (optional)
	if cfg.Mirror.Enabled {
		uploader, err := reliability.NewS3Uploader(ctx, cfg.Mirror)
		if err != nil {
			return fmt.Errorf("failed to create artifact uploader: %w", err)
		}
		container.Mirror = reliability.NewArtifactMirror(uploader, cfg.Mirror.Prefix, []string{
			container.FeatureStore.Path(),
			container.Ledger.Path(),
			container.ModelStore.Dir(),
		}, log)
	}

	log.Info().
		Bool("collector", container.Collector != nil).
		Bool("mirror", container.Mirror != nil).
		Msg("Services initialized")
	return nil
}
