package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Monte Carlo 포트폴리오 선택기",
	Long: `Investment Unified CLI

무작위 비중 포트폴리오를 샘플링하고 예산에 맞게 정수 주식 수로 조정한 뒤
Sharpe / Sortino / 최소 변동성 기준으로 최적 포트폴리오를 선택합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant optimize --profile config/profiles/balanced.yaml
  go run ./cmd/quant optimize --tickers SPY,TLT,GLD --budget 10000 --start 2023-01-01
  go run ./cmd/quant signals --tickers AAPL,MSFT --start 2024-01-01
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
