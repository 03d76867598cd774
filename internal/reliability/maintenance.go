package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/pricecast/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// MinFreeDiskBytes is the free space below which maintenance reports an error
const MinFreeDiskBytes = 500 * 1024 * 1024

// StoreMaintenanceJob checkpoints the price store WAL and watches free disk space
type StoreMaintenanceJob struct {
	db      *database.DB
	dataDir string
	log     zerolog.Logger
}

// NewStoreMaintenanceJob creates a new maintenance job
func NewStoreMaintenanceJob(db *database.DB, dataDir string, log zerolog.Logger) *StoreMaintenanceJob {
	return &StoreMaintenanceJob{
		db:      db,
		dataDir: dataDir,
		log:     log.With().Str("job", "store_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *StoreMaintenanceJob) Name() string {
	return "store_maintenance"
}

// Run executes the maintenance job
func (j *StoreMaintenanceJob) Run() error {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.db.QuickCheck(ctx); err != nil {
		return fmt.Errorf("price store unreachable: %w", err)
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		// Not critical, retried next run
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if stats, err := j.db.GetStats(); err == nil {
		j.log.Debug().
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Msg("Price store stats")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Store maintenance completed")
	return nil
}

func (j *StoreMaintenanceJob) checkDiskSpace() error {
	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	if usage.Free < MinFreeDiskBytes {
		j.log.Error().Uint64("free_bytes", usage.Free).Msg("Insufficient disk space")
		return fmt.Errorf("only %d bytes free in %s", usage.Free, j.dataDir)
	}

	if usage.UsedPercent > 90 {
		j.log.Warn().Float64("used_percent", usage.UsedPercent).Msg("Disk space running low")
	}
	return nil
}
