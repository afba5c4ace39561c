package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints.
// Portfolios and lookback may be zero here; ApplyDefaults fills them.
func Validate(p *Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return ValidationError{"name", "required"}
	}
	if !(p.Budget > 0) || math.IsInf(p.Budget, 0) {
		return ValidationError{"budget", "must be > 0"}
	}

	if len(p.Tickers) == 0 {
		return ValidationError{"tickers", "required"}
	}
	seen := make(map[string]bool, len(p.Tickers))
	for i, t := range p.Tickers {
		key := strings.ToUpper(strings.TrimSpace(t))
		if key == "" {
			return ValidationError{fmt.Sprintf("tickers[%d]", i), "must not be empty"}
		}
		if seen[key] {
			return ValidationError{fmt.Sprintf("tickers[%d]", i), fmt.Sprintf("duplicate ticker %s", t)}
		}
		seen[key] = true
	}

	start, err := p.StartDate()
	if err != nil {
		return ValidationError{"start", "must be YYYY-MM-DD"}
	}
	if p.End != "" {
		end, err := p.EndDate(start)
		if err != nil {
			return ValidationError{"end", "must be YYYY-MM-DD"}
		}
		if !start.Before(end) {
			return ValidationError{"end", "must be after start"}
		}
	}

	switch p.Interval {
	case "", "1d", "1wk", "1mo", "d", "wk", "mo":
	default:
		return ValidationError{"interval", "must be 1d, 1wk or 1mo"}
	}

	if p.Portfolios < 0 {
		return ValidationError{"portfolios", "must be >= 0"}
	}
	if p.Lookback < 0 {
		return ValidationError{"lookback", "must be >= 0"}
	}
	if math.IsNaN(p.RiskFree) || math.IsInf(p.RiskFree, 0) {
		return ValidationError{"risk_free", "must be finite"}
	}

	if p.Schedule != "" {
		if _, err := cron.ParseStandard(p.Schedule); err != nil {
			return ValidationError{"schedule", err.Error()}
		}
	}

	if c := p.Currency; c != nil {
		if c.Pair == "" {
			return ValidationError{"currency.pair", "required"}
		}
		if len(c.Tickers) == 0 {
			return ValidationError{"currency.tickers", "required"}
		}
		for i, t := range c.Tickers {
			if !seen[strings.ToUpper(t)] {
				return ValidationError{fmt.Sprintf("currency.tickers[%d]", i), fmt.Sprintf("%s is not in tickers", t)}
			}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	// 자산 1개면 비중 조합이 하나뿐
	if len(p.Tickers) == 1 {
		warnings = append(warnings, Warning{
			Code:    "SINGLE_ASSET",
			Message: "only one ticker: every candidate is the same portfolio",
		})
	}

	if p.Portfolios > 0 && p.Portfolios < 1000 {
		warnings = append(warnings, Warning{
			Code:    "FEW_PORTFOLIOS",
			Message: "fewer than 1000 simulated portfolios: the optimum is noisy",
		})
	}

	if p.Lookback == 1 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_LOOKBACK",
			Message: "lookback of 1 period: volatility is undefined",
		})
	}

	return warnings
}
