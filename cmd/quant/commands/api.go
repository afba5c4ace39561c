package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deisterstuff/investment/internal/api"
	"github.com/deisterstuff/investment/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                    - Health check
  GET  /metrics                   - Prometheus metrics
  GET  /ws/selections             - 선택 결과 실시간 피드 (websocket)
  POST /api/portfolio/optimize    - 프로파일(JSON)로 최적화 실행
  GET  /api/portfolio/runs        - 최근 실행 목록
  GET  /api/portfolio/runs/{id}   - 실행 상세
  GET  /api/signals               - 기술적 지표 스냅샷

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
	apiProfilesDir   string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "스케줄러를 같은 프로세스에서 실행")
	apiCmd.Flags().StringVar(&apiProfilesDir, "profiles", "config/profiles", "프로파일 디렉터리 (--with-scheduler)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Wire dependencies
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port":        a.cfg.Port,
		"env":         a.cfg.Env,
		"persistence": a.db != nil,
		"redis":       a.redis.Enabled(),
	}).Info("Initializing API server")

	// 2. Websocket hub receives every finished run
	hub := api.NewHub(log.WithComponent("ws"))
	defer hub.Close()
	a.service.WithPublisher(hub)

	// 3. Router
	deps := api.Deps{
		Portfolio: handlers.NewPortfolioHandler(a.service, a.runs, log),
		Hub:       hub,
		Metrics:   a.metrics,
		RateLimit: a.cfg.APIRateLimit,
		Burst:     a.cfg.APIBurst,
		Logger:    log,
	}
	if a.db != nil {
		deps.DB = a.db
	}
	server := api.New(a.cfg, log, api.NewRouter(deps))

	// 4. Optional in-process scheduler
	if apiWithScheduler {
		sched, err := newScheduler(a, apiProfilesDir)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// 5. Serve until Ctrl+C, then shut down gracefully
	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	return server.Run(ctx, api.DefaultShutdownTimeout)
}
