package config_test

import (
	"fmt"

	"github.com/deisterstuff/investment/pkg/config"
)

// Example loads configuration the way `quant --config` does
func Example() {
	cfg, err := config.LoadFile("")
	if err != nil {
		fmt.Printf("config: %v\n", err)
		return
	}

	if !cfg.PersistenceEnabled() {
		fmt.Println("runs are kept in memory")
	}
	fmt.Printf("%d portfolios over %d periods, rf=%.4f\n",
		cfg.Optimizer.Portfolios, cfg.Optimizer.Lookback, cfg.Optimizer.RiskFree)
}
