package di

import (
	"fmt"

	"github.com/aristath/pricecast/internal/config"
	"github.com/aristath/pricecast/internal/reliability"
	"github.com/aristath/pricecast/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs builds the job instances from the container
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container.FeatureService == nil || container.Trainer == nil || container.Forecaster == nil {
		return nil, fmt.Errorf("pipeline services must be initialized first")
	}

	// Optional stages stay untyped nil when disabled so the cycle skips them
	cycleCfg := scheduler.CycleConfig{
		Log:       log,
		Features:  container.FeatureService,
		Trainer:   container.Trainer,
		Forecasts: container.Forecaster,
	}
	if container.Collector != nil {
		cycleCfg.Collector = container.Collector
	}
	if container.Mirror != nil {
		cycleCfg.Mirror = container.Mirror
	}

	jobs := &JobInstances{
		Cycle: scheduler.NewCycleJob(cycleCfg),
	}
	if container.PriceDB != nil {
		jobs.Maintenance = reliability.NewStoreMaintenanceJob(container.PriceDB, cfg.DataDir, log)
	}
	return jobs, nil
}

// ScheduleJobs registers the job instances on the scheduler
func ScheduleJobs(s *scheduler.Scheduler, jobs *JobInstances, cfg *config.Config) error {
	if err := s.AddJob(cfg.Pipeline.CycleSchedule, jobs.Cycle); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", jobs.Cycle.Name(), err)
	}
	if jobs.Maintenance != nil {
		if err := s.AddJob(MaintenanceCron, jobs.Maintenance); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", jobs.Maintenance.Name(), err)
		}
	}
	return nil
}
