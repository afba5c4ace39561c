package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deisterstuff/investment/pkg/httputil"
	"github.com/deisterstuff/investment/pkg/logger"
)

// YahooClient fetches adjusted closes from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo chart API 호출은 이 클라이언트에서만
type YahooClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewYahooClient creates a new chart API client
func NewYahooClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *YahooClient {
	return &YahooClient{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// History implements Provider
func (c *YahooClient) History(ctx context.Context, ticker string, from, to time.Time, interval string) ([]Bar, error) {
	iv, err := NormalizeInterval(interval)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", dateOnly(from).Unix()))
	params.Set("period2", fmt.Sprintf("%d", dateOnly(to).AddDate(0, 0, 1).Unix()))
	params.Set("interval", iv)
	params.Set("events", "div,split")
	params.Set("includeAdjustedClose", "true")

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var body chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &body); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
		}
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}

	if body.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrNoData, ticker, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	bars := parseChart(body.Chart.Result[0])
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"interval": iv,
		"count":    len(bars),
	}).Debug("Fetched yahoo chart")

	return bars, nil
}

// parseChart prefers adjclose and falls back to close; null points are skipped
func parseChart(r chartResult) []Bar {
	var closes []*float64
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) > 0 {
		closes = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}

	bars := make([]Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		bars = append(bars, Bar{
			Date:  dateOnly(time.Unix(ts+r.Meta.GMTOffset, 0)),
			Close: *closes[i],
		})
	}
	return bars
}
