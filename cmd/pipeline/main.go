// Package main runs the pricecast pipeline once without the HTTP server.
//
// Usage:
//
//	pipeline -stage=all
//	pipeline -stage=train
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/pricecast/internal/config"
	"github.com/aristath/pricecast/internal/di"
	"github.com/aristath/pricecast/pkg/logger"
	"github.com/rs/zerolog"
)

const (
	stageCollect  = "collect"
	stageFeatures = "features"
	stageTrain    = "train"
	stageForecast = "forecast"
	stageAll      = "all"
)

func main() {
	stage := flag.String("stage", stageAll, "Stage to run: collect, features, train, forecast or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("Cancelling pipeline")
		cancel()
	}()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	if *stage == stageAll {
		result, err := jobs.Cycle.RunCycle(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Cycle failed")
			os.Exit(1)
		}
		log.Info().
			Str("cycle_id", result.ID).
			Int64("duration_ms", result.DurationMs).
			Msg("Cycle completed")
		return
	}

	if err := runStage(ctx, *stage, container, log); err != nil {
		log.Error().Err(err).Str("stage", *stage).Msg("Stage failed")
		os.Exit(1)
	}
}

func runStage(ctx context.Context, stage string, c *di.Container, log zerolog.Logger) error {
	switch stage {
	case stageCollect:
		if c.Collector == nil {
			return fmt.Errorf("collector is disabled (set COLLECTOR_ENABLED=true)")
		}
		n, err := c.Collector.Run(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("inserted", n).Msg("Collected prices")

	case stageFeatures:
		result, err := c.FeatureService.Run(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("samples", result.Samples).Int("rows", result.Rows).Msg("Built features")

	case stageTrain:
		outcomes, err := c.Trainer.Run(ctx)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			log.Info().Str("asset", o.AssetID).Str("status", string(o.Status)).Msg("Training outcome")
		}

	case stageForecast:
		outcomes, err := c.Forecaster.Run(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("assets", len(outcomes)).Msg("Produced forecasts")

	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	return nil
}
