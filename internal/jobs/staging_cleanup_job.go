package jobs

import (
	"context"
	"time"

	"github.com/straye-as/contact-distribution-api/internal/metrics"
	"go.uber.org/zap"
)

// StagingCleanupJobName is the name of the staged upload sweep job
const StagingCleanupJobName = "staging_cleanup"

// stagingCleanupTimeout bounds a single sweep
const stagingCleanupTimeout = time.Minute

// StagingSweeper removes staged uploads older than a cutoff.
// Satisfied by storage.Storage.
type StagingSweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// StagingCleanupJob deletes staged uploads that a request failed to clean up,
// for instance because the process died between staging and parsing.
type StagingCleanupJob struct {
	sweeper StagingSweeper
	logger  *zap.Logger
	maxAge  time.Duration
	now     func() time.Time
}

// NewStagingCleanupJob creates the sweep job. Files older than maxAge are removed.
func NewStagingCleanupJob(sweeper StagingSweeper, logger *zap.Logger, maxAge time.Duration) *StagingCleanupJob {
	return &StagingCleanupJob{
		sweeper: sweeper,
		logger:  logger,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Run executes one sweep and returns the number of files removed.
// A failed sweep may still have removed some files.
func (j *StagingCleanupJob) Run(ctx context.Context) (int, error) {
	removed, err := j.sweeper.Sweep(ctx, j.now().Add(-j.maxAge))
	metrics.StagedFilesSweptTotal.Add(float64(removed))
	if err != nil {
		return removed, err
	}

	if removed > 0 {
		j.logger.Info("staging cleanup completed",
			zap.Int("removed", removed),
			zap.Duration("max_age", j.maxAge))
	}
	return removed, nil
}

// RegisterStagingCleanupJob registers the sweep with the scheduler
func RegisterStagingCleanupJob(scheduler *Scheduler, sweeper StagingSweeper, logger *zap.Logger, cronExpr string, maxAge time.Duration) error {
	job := NewStagingCleanupJob(sweeper, logger, maxAge)
	return scheduler.AddJob(StagingCleanupJobName, cronExpr, stagingCleanupTimeout, func(ctx context.Context) error {
		_, err := job.Run(ctx)
		return err
	})
}
