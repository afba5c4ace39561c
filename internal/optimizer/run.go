package optimizer

import (
	"time"

	"github.com/deisterstuff/investment/internal/portfolio"
	"github.com/deisterstuff/investment/internal/risk"
)

// Trigger identifies what started a run
type Trigger string

const (
	TriggerCLI       Trigger = "cli"
	TriggerAPI       Trigger = "api"
	TriggerScheduler Trigger = "scheduler"
)

// Run is one completed optimization with its inputs and risk reports
// ⭐ SSOT: 저장/조회/웹소켓 전송 모두 이 구조체를 사용
type Run struct {
	ID          string                               `json:"id"`
	Profile     string                               `json:"profile"`
	ProfileHash string                               `json:"profile_hash"`
	Trigger     Trigger                              `json:"trigger"`
	From        time.Time                            `json:"from"`
	To          time.Time                            `json:"to"`
	Interval    string                               `json:"interval"`
	Periods     int                                  `json:"periods"` // return rows used by the simulation
	Currency    string                               `json:"currency,omitempty"`
	Selection   *portfolio.Selection                 `json:"selection"`
	Risk        map[portfolio.Objective]*risk.Report `json:"risk,omitempty"`
	Warnings    []string                             `json:"warnings,omitempty"`
	Persisted   bool                                 `json:"persisted"`
	CreatedAt   time.Time                            `json:"created_at"`
	DurationMS  int64                                `json:"duration_ms"`
}

// Summary is the list view of a run
type Summary struct {
	ID        string    `json:"id"`
	Profile   string    `json:"profile"`
	Trigger   Trigger   `json:"trigger"`
	Tickers   []string  `json:"tickers"`
	Feasible  int       `json:"feasible"`
	Sharpe    *float64  `json:"sharpe"`
	CreatedAt time.Time `json:"created_at"`
}

// Summarize returns the list view of r
func (r *Run) Summarize() Summary {
	s := Summary{
		ID:        r.ID,
		Profile:   r.Profile,
		Trigger:   r.Trigger,
		CreatedAt: r.CreatedAt,
	}
	if r.Selection != nil {
		s.Tickers = r.Selection.Tickers
		s.Feasible = r.Selection.Feasible
		if ratio := r.Selection.Sharpe.Ratio; !r.Selection.Sharpe.Degenerate {
			s.Sharpe = &ratio
		}
	}
	return s
}
