package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/deisterstuff/investment/pkg/config"
	"github.com/deisterstuff/investment/pkg/httputil"
	"github.com/deisterstuff/investment/pkg/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testHTTPClient() *httputil.Client {
	return httputil.New(&config.Config{Env: "test"}, logger.Nop()).DisableRetry()
}

// fakeProvider serves fixed series and counts calls per ticker
type fakeProvider struct {
	mu    sync.Mutex
	data  map[string][]Bar
	err   error
	calls map[string]int
}

func newFakeProvider(data map[string][]Bar) *fakeProvider {
	return &fakeProvider{data: data, calls: make(map[string]int)}
}

func (f *fakeProvider) History(_ context.Context, ticker string, _, _ time.Time, _ string) ([]Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[ticker]++
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.data[ticker]
	if !ok {
		return nil, ErrNoData
	}
	return bars, nil
}

func (f *fakeProvider) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}
