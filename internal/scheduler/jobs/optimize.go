package jobs

import (
	"context"
	"fmt"

	"github.com/deisterstuff/investment/internal/optimizer"
	"github.com/deisterstuff/investment/internal/profile"
	"github.com/deisterstuff/investment/pkg/logger"
)

// Runner executes one optimization run
type Runner interface {
	Run(ctx context.Context, p *profile.Profile, trigger optimizer.Trigger) (*optimizer.Run, error)
}

// OptimizeJob re-runs a profile on its schedule
type OptimizeJob struct {
	profile *profile.Profile
	runner  Runner
	logger  *logger.Logger
}

// NewOptimizeJob creates a new optimize job
func NewOptimizeJob(p *profile.Profile, runner Runner, log *logger.Logger) *OptimizeJob {
	if log == nil {
		log = logger.Nop()
	}
	return &OptimizeJob{
		profile: p,
		runner:  runner,
		logger:  log,
	}
}

// Name returns the job name
func (j *OptimizeJob) Name() string {
	return "optimize:" + j.profile.Name
}

// Schedule returns the profile's cron schedule
func (j *OptimizeJob) Schedule() string {
	return j.profile.Schedule
}

// Run executes the optimization
func (j *OptimizeJob) Run(ctx context.Context) error {
	run, err := j.runner.Run(ctx, j.profile, optimizer.TriggerScheduler)
	if err != nil {
		return fmt.Errorf("optimize %s: %w", j.profile.Name, err)
	}

	j.logger.WithRun(run.ID, j.profile.Name).
		WithField("persisted", run.Persisted).
		Info("Scheduled optimization completed")

	return nil
}

// ForProfiles builds optimize jobs for every scheduled profile
func ForProfiles(profiles []*profile.Profile, runner Runner, log *logger.Logger) []*OptimizeJob {
	out := make([]*OptimizeJob, 0, len(profiles))
	for _, p := range profiles {
		if !p.Scheduled() {
			continue
		}
		out = append(out, NewOptimizeJob(p, runner, log))
	}
	return out
}
