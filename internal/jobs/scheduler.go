// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/straye-as/contact-distribution-api/internal/metrics"
	"go.uber.org/zap"
)

// JobFunc is one run of a scheduled job. ctx is cancelled when the run exceeds its timeout.
type JobFunc func(ctx context.Context) error

// Scheduler runs named jobs with robfig/cron. Overlapping runs of the same job are skipped
// and panics are recovered.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	cronLog := cronLogger{logger: logger.Named("cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("starting job scheduler", zap.Strings("jobs", s.Jobs()))
	s.cron.Start()
}

// Stop halts scheduling. The returned context is done once running jobs complete.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping job scheduler")
	return s.cron.Stop()
}

// AddJob schedules job under a unique name. cronExpr has a leading seconds field
// ("0 */15 * * * *") or is a descriptor such as "@every 15m".
func (s *Scheduler) AddJob(name, cronExpr string, timeout time.Duration, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() { s.run(name, timeout, job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", cronExpr, name, err)
	}
	s.entries[name] = entryID

	s.logger.Info("scheduled job registered",
		zap.String("job_name", name),
		zap.String("cron_expr", cronExpr),
		zap.Duration("timeout", timeout),
	)
	return nil
}

// Jobs returns the registered job names in sorted order
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) run(name string, timeout time.Duration, job JobFunc) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := job(ctx)
	log := s.logger.With(zap.String("job_name", name), zap.Duration("duration", time.Since(start)))
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(name, metrics.OutcomeFailed).Inc()
		log.Error("scheduled job failed", zap.Error(err))
		return
	}
	metrics.JobRunsTotal.WithLabelValues(name, metrics.OutcomeSucceeded).Inc()
	log.Debug("scheduled job finished")
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
