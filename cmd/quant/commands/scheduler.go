package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deisterstuff/investment/internal/profile"
	"github.com/deisterstuff/investment/internal/scheduler"
	"github.com/deisterstuff/investment/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `프로파일의 schedule 필드(표준 5필드 cron)에 따라 최적화를 반복 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

등록되는 작업:
- optimize:<profile>: schedule이 있는 프로파일마다 하나
- prune_runs: 매일 03:00 (오래된 실행 기록 삭제)

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run optimize:balanced`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerProfilesDir string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerProfilesDir, "profiles", "config/profiles", "프로파일 디렉터리")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a, schedulerProfilesDir)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	out := cmd.OutOrStdout()
	PrintSuccess(out, "Scheduler started successfully")
	fmt.Fprintln(out, "\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Fprintf(out, "  - %s\n", jobName)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	fmt.Fprintln(out, "Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	profiles, err := profile.LoadDir(schedulerProfilesDir)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	out := cmd.OutOrStdout()
	widths := []int{28, 20}
	PrintTableHeader(out, []string{"Job", "Schedule"}, widths)
	for _, job := range jobs.ForProfiles(profiles, nil, nil) {
		PrintTableRow(out, []string{job.Name(), job.Schedule()}, widths)
	}
	prune := jobs.NewPruneRunsJob(nil, 0, nil)
	PrintTableRow(out, []string{prune.Name(), prune.Schedule()}, widths)

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a, schedulerProfilesDir)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Running job: %s\n", jobName)

	result, err := sched.RunNow(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", jobName, result.Attempts, result.Error)
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Job %s completed in %s", jobName, result.Duration))
	return nil
}

// newScheduler registers an optimize job per scheduled profile plus run pruning
func newScheduler(a *app, profilesDir string) (*scheduler.Scheduler, error) {
	profiles, err := profile.LoadDir(profilesDir)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	sched := scheduler.New(a.log.WithComponent("scheduler"), a.metrics)

	for _, job := range jobs.ForProfiles(profiles, a.service, a.log) {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	if err := sched.AddJob(jobs.NewPruneRunsJob(a.pruner, 0, a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}
