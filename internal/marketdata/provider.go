package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Bar is one adjusted close observation
type Bar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Provider returns chronological adjusted closes for one ticker
// ⭐ SSOT: 가격 소스는 이 인터페이스 뒤에서만 교체
type Provider interface {
	History(ctx context.Context, ticker string, from, to time.Time, interval string) ([]Bar, error)
}

var (
	ErrNoData          = errors.New("no price data")
	ErrInvalidInterval = errors.New("invalid interval")
	ErrDuplicateTicker = errors.New("duplicate ticker")
)

// NormalizeInterval maps short forms (d, wk, mo) to Yahoo intervals (1d, 1wk, 1mo)
func NormalizeInterval(interval string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(interval)) {
	case "", "d", "1d", "day", "daily":
		return "1d", nil
	case "w", "wk", "1wk", "week", "weekly":
		return "1wk", nil
	case "m", "mo", "1mo", "month", "monthly":
		return "1mo", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
}

// dateOnly truncates t to its UTC calendar date
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
