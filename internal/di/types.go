// Package di provides dependency injection wiring and initialization.
//
// The Container holds every long-lived component. It is the single source of
// truth for service instances and is passed to the HTTP server and the CLI.
package di

import (
	"github.com/aristath/pricecast/internal/clients/coingecko"
	"github.com/aristath/pricecast/internal/database"
	"github.com/aristath/pricecast/internal/modules/collector"
	"github.com/aristath/pricecast/internal/modules/features"
	"github.com/aristath/pricecast/internal/modules/forecasting"
	"github.com/aristath/pricecast/internal/modules/prices"
	"github.com/aristath/pricecast/internal/modules/reconciliation"
	"github.com/aristath/pricecast/internal/modules/training"
	"github.com/aristath/pricecast/internal/reliability"
	"github.com/aristath/pricecast/internal/scheduler"
)

// Artifact file names under the data directory
const (
	PriceDBFile      = "prices.db"
	FeaturesFile     = "features.parquet"
	LedgerFile       = "ledger.parquet"
	ModelsDir        = "models"
	MaintenanceCron  = "0 0 3 * * *"
	priceStoreDBName = "prices"
)

// Container holds all application dependencies
type Container struct {
	// Price store. Exactly one of PriceDB and PricePool is set.
	PriceDB   *database.DB
	PricePool *prices.Pool
	Prices    prices.Store

	// Artifacts
	FeatureStore *features.ParquetStore
	ModelStore   *training.FileModelStore
	Ledger       *forecasting.ParquetLedger

	// Pipeline stages
	CoinGeckoClient *coingecko.Client
	Collector       *collector.Collector // nil when collection is disabled
	FeatureService  *features.Service
	Trainer         *training.Trainer
	Forecaster      *forecasting.Forecaster

	// Read side
	ForecastReader        *forecasting.Reader
	ReconciliationService *reconciliation.Service

	// Reliability
	Mirror *reliability.ArtifactMirror // nil when mirroring is disabled
}

// JobInstances holds the scheduled jobs
type JobInstances struct {
	Cycle       *scheduler.CycleJob
	Maintenance *reliability.StoreMaintenanceJob // nil for the postgres price source
}

// Close releases the price store connection
func (c *Container) Close() error {
	if c.PricePool != nil {
		c.PricePool.Close()
	}
	if c.PriceDB != nil {
		return c.PriceDB.Close()
	}
	return nil
}
