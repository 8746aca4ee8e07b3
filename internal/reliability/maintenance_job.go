package reliability

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/aristath/merval/internal/database"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// minFreeBytes is the free space below which a fetch run would likely fail
// half way through writing its CSVs
const minFreeBytes = 500 * 1000 * 1000

// MaintenanceJob checks the history database and the free space of the
// data directory. It runs on the scheduler next to the fetch job.
type MaintenanceJob struct {
	db      *database.DB
	dataDir string
	statfs  func(path string) (uint64, error)
	log     zerolog.Logger
}

// NewMaintenanceJob creates the maintenance job. db may be nil when the
// history store is disabled.
func NewMaintenanceJob(db *database.DB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:      db,
		dataDir: dataDir,
		statfs:  availableBytes,
		log:     log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run(ctx context.Context) error {
	startTime := time.Now()

	if j.db != nil {
		if err := j.db.QuickCheck(ctx); err != nil {
			return fmt.Errorf("history database unreachable: %w", err)
		}
		if err := j.db.WALCheckpoint(); err != nil {
			// Not critical, the next checkpoint catches up
			j.log.Warn().Err(err).Msg("WAL checkpoint failed")
		}
		if info, err := os.Stat(j.db.Path()); err == nil {
			j.log.Debug().Str("size", humanize.Bytes(uint64(info.Size()))).Msg("History database size")
		}
	}

	free, err := j.statfs(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}
	if free < minFreeBytes {
		j.log.Error().Str("available", humanize.Bytes(free)).Msg("Insufficient disk space")
		return fmt.Errorf("only %s free in %s", humanize.Bytes(free), j.dataDir)
	}

	j.log.Info().
		Str("available", humanize.Bytes(free)).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Maintenance completed")
	return nil
}

func availableBytes(path string) (uint64, error) {
	stat := syscall.Statfs_t{}
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
