package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/deisterstuff/investment/pkg/config"
	"github.com/deisterstuff/investment/pkg/database"
	"github.com/deisterstuff/investment/pkg/redis"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "PostgreSQL / Redis 연결 점검",
	Long: `설정된 외부 의존성의 연결 상태를 점검합니다.

이 명령어는:
- config에서 DATABASE_URL / REDIS_* 로드
- 데이터베이스 Health Check 및 Connection Pool 통계 표시
- Redis Ping

설정되지 않은 의존성은 건너뜁니다 (메모리 저장 / 캐시 없음으로 동작).

Example:
  go run ./cmd/quant check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	PrintSuccess(out, fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Database
	PrintSeparator(out)
	db, err := database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		PrintWarning(out, "DATABASE_URL not set, runs are kept in memory")
	case err != nil:
		return fmt.Errorf("❌ database: %w", err)
	default:
		defer db.Close()

		status, err := db.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("❌ health check failed: %w", err)
		}
		PrintSuccess(out, "Database healthy")
		PrintKeyValue(out, "URL", maskURL(cfg.Database.URL), 14)
		PrintKeyValue(out, "Response Time", status.ResponseTime, 14)
		PrintKeyValue(out, "Connections", fmt.Sprintf("%d/%d (idle %d, acquired %d)",
			status.Stats.TotalConns, status.Stats.MaxConns, status.Stats.IdleConns, status.Stats.AcquiredConns), 14)
	}

	// Redis
	PrintSeparator(out)
	if !cfg.Redis.Enabled {
		PrintWarning(out, "REDIS_ENABLED=false, price cache and shared rate limit are off")
		return nil
	}

	rc, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ redis: %w", err)
	}
	defer rc.Close()

	if err := rc.Ping(ctx); err != nil {
		return fmt.Errorf("❌ redis ping: %w", err)
	}
	PrintSuccess(out, fmt.Sprintf("Redis reachable at %s:%s", cfg.Redis.Host, cfg.Redis.Port))

	return nil
}

// maskURL hides the password of a connection URL
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
