package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deisterstuff/investment/internal/indicators"
	"github.com/deisterstuff/investment/internal/profile"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "기술적 지표 스냅샷",
	Long: `종목별 최신 Bollinger 밴드 / RSI / 모멘텀을 계산합니다.

Columns:
  Band     1 = 하단 밴드 아래, -1 = 상단 밴드 위
  Rebound  1 = 하단 밴드에서 반등 중

Example:
  go run ./cmd/quant signals --tickers AAPL,MSFT --start 2024-01-01
  go run ./cmd/quant signals --tickers SPY --start 2024-01-01 --period 30`,
	RunE: runSignals,
}

var (
	sigTickers  []string
	sigStart    string
	sigEnd      string
	sigInterval string
	sigPeriod   int
	sigJSON     bool
)

func init() {
	rootCmd.AddCommand(signalsCmd)

	// Flags
	f := signalsCmd.Flags()
	f.StringSliceVar(&sigTickers, "tickers", nil, "종목 목록")
	f.StringVar(&sigStart, "start", "", "시작일 (YYYY-MM-DD)")
	f.StringVar(&sigEnd, "end", "", "종료일 (YYYY-MM-DD, 기본: 오늘)")
	f.StringVar(&sigInterval, "interval", "1d", "가격 간격")
	f.IntVar(&sigPeriod, "period", indicators.DefaultBandPeriod, "밴드 기간")
	f.BoolVar(&sigJSON, "json", false, "JSON 출력")
	_ = signalsCmd.MarkFlagRequired("tickers")
	_ = signalsCmd.MarkFlagRequired("start")
}

func runSignals(cmd *cobra.Command, args []string) error {
	from, err := time.Parse(profile.DateLayout, sigStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	to := time.Now().UTC()
	if sigEnd != "" {
		if to, err = time.Parse(profile.DateLayout, sigEnd); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snaps, err := a.service.Signals(ctx, upper(sigTickers), from, to, sigInterval, sigPeriod)
	if err != nil {
		return fmt.Errorf("signals: %w", err)
	}

	if sigJSON {
		return PrintJSON(cmd.OutOrStdout(), snaps)
	}
	PrintSignals(cmd.OutOrStdout(), snaps)
	return nil
}
