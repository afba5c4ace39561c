package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deisterstuff/investment/internal/optimizer"
	"github.com/deisterstuff/investment/internal/profile"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "포트폴리오 최적화 1회 실행",
	Long: `프로파일(YAML) 또는 플래그로 지정한 종목에 대해 Monte Carlo 선택을 실행합니다.

결과:
- 최대 Sharpe 포트폴리오
- 최대 Sortino 포트폴리오
- 최소 변동성 포트폴리오
각각 정수 주식 수, 사용 금액, 잔여 현금, 리스크 리포트(VaR/CVaR/MDD) 포함.

Example:
  go run ./cmd/quant optimize --profile config/profiles/balanced.yaml
  go run ./cmd/quant optimize --tickers SPY,TLT,GLD --budget 10000 --start 2023-01-01
  go run ./cmd/quant optimize --tickers AAPL,MSFT --budget 50000 --start 2022-01-01 \
      --currency-pair MXN=X --currency-tickers AAPL,MSFT --json`,
	RunE: runOptimize,
}

var (
	optProfilePath     string
	optName            string
	optTickers         []string
	optBudget          float64
	optStart           string
	optEnd             string
	optInterval        string
	optPortfolios      int
	optLookback        int
	optRiskFree        float64
	optAllowShort      bool
	optOmega           bool
	optSeed            int64
	optCurrencyPair    string
	optCurrencyTickers []string
	optJSON            bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	// Flags
	f := optimizeCmd.Flags()
	f.StringVar(&optProfilePath, "profile", "", "프로파일 YAML 경로 (지정 시 아래 플래그 무시)")
	f.StringVar(&optName, "name", "adhoc", "실행 이름")
	f.StringSliceVar(&optTickers, "tickers", nil, "종목 목록 (예: SPY,TLT,GLD)")
	f.Float64Var(&optBudget, "budget", 0, "투자 예산")
	f.StringVar(&optStart, "start", "", "시작일 (YYYY-MM-DD)")
	f.StringVar(&optEnd, "end", "", "종료일 (YYYY-MM-DD, 기본: 오늘)")
	f.StringVar(&optInterval, "interval", "1d", "가격 간격 (1d|1wk|1mo)")
	f.IntVar(&optPortfolios, "portfolios", 0, "샘플 포트폴리오 수 (0 = OPT_PORTFOLIOS)")
	f.IntVar(&optLookback, "lookback", 0, "수익률 lookback 기간 수 (0 = OPT_LOOKBACK)")
	f.Float64Var(&optRiskFree, "risk-free", 0, "무위험 수익률")
	f.BoolVar(&optAllowShort, "short", false, "공매도 허용 (long/short 비중)")
	f.BoolVar(&optOmega, "omega", false, "Omega 비율도 계산")
	f.Int64Var(&optSeed, "seed", 0, "샘플러 시드 (0 = 시간 기반)")
	f.StringVar(&optCurrencyPair, "currency-pair", "", "환율 종목 (예: MXN=X)")
	f.StringSliceVar(&optCurrencyTickers, "currency-tickers", nil, "환산할 종목")
	f.BoolVar(&optJSON, "json", false, "JSON 출력")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	p, err := optimizeProfile()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.service.Run(ctx, p, optimizer.TriggerCLI)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	out := cmd.OutOrStdout()
	if optJSON {
		return PrintJSON(out, run)
	}
	PrintRun(out, run)
	fmt.Fprintln(out)
	PrintSuccess(out, fmt.Sprintf("Run %s completed in %dms", run.ID, run.DurationMS))
	return nil
}

// optimizeProfile builds the profile from --profile or the individual flags
func optimizeProfile() (*profile.Profile, error) {
	if optProfilePath != "" {
		p, _, err := profile.Load(optProfilePath)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		return p, nil
	}

	p := &profile.Profile{
		Name:       optName,
		Budget:     optBudget,
		Tickers:    upper(optTickers),
		Start:      optStart,
		End:        optEnd,
		Interval:   optInterval,
		Portfolios: optPortfolios,
		Lookback:   optLookback,
		RiskFree:   optRiskFree,
		AllowShort: optAllowShort,
		Omega:      optOmega,
		Seed:       optSeed,
	}
	if optCurrencyPair != "" {
		p.Currency = &profile.Currency{
			Pair:    optCurrencyPair,
			Tickers: upper(optCurrencyTickers),
		}
	}
	return p, nil
}

func upper(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
