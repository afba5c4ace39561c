package profile

import (
	"fmt"
	"time"
)

// DateLayout is the date format used by start/end
const DateLayout = "2006-01-02"

// Profile는 포트폴리오 최적화 한 건의 전체 설정
type Profile struct {
	Name       string    `yaml:"name" json:"name"`
	Budget     float64   `yaml:"budget" json:"budget"`
	Tickers    []string  `yaml:"tickers" json:"tickers"`
	Start      string    `yaml:"start" json:"start"`
	End        string    `yaml:"end,omitempty" json:"end,omitempty"` // 비어 있으면 오늘
	Interval   string    `yaml:"interval" json:"interval"`
	Portfolios int       `yaml:"portfolios" json:"portfolios"`
	Lookback   int       `yaml:"lookback" json:"lookback"`
	RiskFree   float64   `yaml:"risk_free" json:"risk_free"`
	AllowShort bool      `yaml:"allow_short" json:"allow_short"`
	Omega      bool      `yaml:"omega" json:"omega"`
	Seed       int64     `yaml:"seed" json:"seed"`
	Schedule   string    `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	Currency   *Currency `yaml:"currency,omitempty" json:"currency,omitempty"`
}

// Currency converts selected tickers with an exchange rate series
type Currency struct {
	Pair    string   `yaml:"pair" json:"pair"` // e.g. MXN=X
	Tickers []string `yaml:"tickers" json:"tickers"`
}

// Defaults fill fields a profile leaves empty
type Defaults struct {
	Portfolios int
	Lookback   int
	RiskFree   float64
}

// ApplyDefaults fills zero-valued optional fields
func (p *Profile) ApplyDefaults(d Defaults) {
	if p.Interval == "" {
		p.Interval = "1d"
	}
	if p.Portfolios == 0 {
		p.Portfolios = d.Portfolios
	}
	if p.Lookback == 0 {
		p.Lookback = d.Lookback
	}
	if p.RiskFree == 0 {
		p.RiskFree = d.RiskFree
	}
}

// StartDate parses Start
func (p *Profile) StartDate() (time.Time, error) {
	t, err := time.Parse(DateLayout, p.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("start: %w", err)
	}
	return t, nil
}

// EndDate parses End, defaulting to now's calendar date
func (p *Profile) EndDate(now time.Time) (time.Time, error) {
	if p.End == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(DateLayout, p.End)
	if err != nil {
		return time.Time{}, fmt.Errorf("end: %w", err)
	}
	return t, nil
}

// Scheduled reports whether the profile should run on a cron schedule
func (p *Profile) Scheduled() bool {
	return p.Schedule != ""
}
