package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/deisterstuff/investment/internal/store"
	"github.com/deisterstuff/investment/pkg/logger"
)

// DefaultRetention 실행 기록 보관 기간
const DefaultRetention = 90 * 24 * time.Hour

// PruneRunsJob deletes stored runs older than the retention window
type PruneRunsJob struct {
	pruner    store.Pruner
	retention time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewPruneRunsJob creates a new prune job (retention <= 0 = DefaultRetention)
func NewPruneRunsJob(pruner store.Pruner, retention time.Duration, log *logger.Logger) *PruneRunsJob {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PruneRunsJob{
		pruner:    pruner,
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *PruneRunsJob) Name() string {
	return "prune_runs"
}

// Schedule returns the cron schedule (daily 03:00)
func (j *PruneRunsJob) Schedule() string {
	return "0 3 * * *"
}

// Run executes the cleanup
func (j *PruneRunsJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled run cleanup")

	cutoff := j.now().Add(-j.retention)
	count, err := j.pruner.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	if count > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": count,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Run cleanup completed")
	}

	return nil
}
