package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deisterstuff/investment/pkg/httputil"
	"github.com/deisterstuff/investment/pkg/logger"
)

// HTMLHistoryClient scrapes the Yahoo history page (fallback when the
// chart API is unavailable)
// ⭐ SSOT: HTML 이력 파싱은 이 클라이언트에서만
type HTMLHistoryClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewHTMLHistoryClient creates a new history page client
func NewHTMLHistoryClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *HTMLHistoryClient {
	return &HTMLHistoryClient{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// History implements Provider
func (c *HTMLHistoryClient) History(ctx context.Context, ticker string, from, to time.Time, interval string) ([]Bar, error) {
	iv, err := NormalizeInterval(interval)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", dateOnly(from).Unix()))
	params.Set("period2", fmt.Sprintf("%d", dateOnly(to).AddDate(0, 0, 1).Unix()))
	params.Set("interval", iv)
	params.Set("filter", "history")

	fullURL := fmt.Sprintf("%s/quote/%s/history?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse history page: %w", err)
	}

	bars := parseHistoryTable(doc, from, to)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(bars),
	}).Debug("Fetched history page")

	return bars, nil
}

var historyDateLayouts = []string{"Jan 2, 2006", "2006-01-02", "Jan 02, 2006"}

// parseHistoryTable reads the first table that has Date and (Adj) Close
// columns. Rows outside [from, to] and non-price rows (dividends, splits)
// are skipped. The page lists newest first; output is chronological.
func parseHistoryTable(doc *goquery.Document, from, to time.Time) []Bar {
	var bars []Bar
	from, to = dateOnly(from), dateOnly(to)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		dateCol, closeCol := -1, -1
		table.Find("thead tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
			text := strings.ToLower(strings.TrimSpace(th.Text()))
			switch {
			case strings.HasPrefix(text, "date"):
				dateCol = i
			case strings.HasPrefix(text, "adj close"):
				closeCol = i
			case strings.HasPrefix(text, "close") && closeCol < 0:
				closeCol = i
			}
		})
		if dateCol < 0 || closeCol < 0 {
			return true
		}

		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= closeCol || cells.Length() <= dateCol {
				return
			}

			date, ok := parseHistoryDate(strings.TrimSpace(cells.Eq(dateCol).Text()))
			if !ok || date.Before(from) || date.After(to) {
				return
			}

			raw := strings.ReplaceAll(strings.TrimSpace(cells.Eq(closeCol).Text()), ",", "")
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return
			}

			bars = append(bars, Bar{Date: date, Close: price})
		})
		return false
	})

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}

func parseHistoryDate(s string) (time.Time, bool) {
	for _, layout := range historyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
