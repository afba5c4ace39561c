package indicators

import (
	"encoding/json"
	"fmt"
	"math"
)

// Snapshot is the latest indicator reading of one ticker
type Snapshot struct {
	Ticker   string  `json:"ticker"`
	Close    float64 `json:"close"`
	Upper    float64 `json:"upper"`
	Lower    float64 `json:"lower"`
	Band     int     `json:"band"`     // BandSignal
	Rebound  int     `json:"rebound"`  // BandTouches
	RSI      float64 `json:"rsi"`      // exponential weights
	Momentum float64 `json:"momentum"` // over the band period
}

// MarshalJSON writes NaN/Inf readings (warm-up, flat series) as null
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type snapshotJSON struct {
		Ticker   string   `json:"ticker"`
		Close    *float64 `json:"close"`
		Upper    *float64 `json:"upper"`
		Lower    *float64 `json:"lower"`
		Band     int      `json:"band"`
		Rebound  int      `json:"rebound"`
		RSI      *float64 `json:"rsi"`
		Momentum *float64 `json:"momentum"`
	}
	return json.Marshal(snapshotJSON{
		Ticker:   s.Ticker,
		Close:    finite(s.Close),
		Upper:    finite(s.Upper),
		Lower:    finite(s.Lower),
		Band:     s.Band,
		Rebound:  s.Rebound,
		RSI:      finite(s.RSI),
		Momentum: finite(s.Momentum),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Latest computes a Snapshot from a close series. RSI and momentum use
// the last period+1 closes.
func Latest(ticker string, closes []float64, period int, k float64) (Snapshot, error) {
	if len(closes) < period {
		return Snapshot{}, fmt.Errorf("%s: need %d closes, got %d", ticker, period, len(closes))
	}

	bands, err := Bollinger(closes, period, k)
	if err != nil {
		return Snapshot{}, err
	}

	last := len(closes) - 1
	from := len(closes) - period - 1
	if from < 0 {
		from = 0
	}
	window := bands.Close[from:]

	return Snapshot{
		Ticker:   ticker,
		Close:    bands.Close[last],
		Upper:    bands.Upper[last],
		Lower:    bands.Lower[last],
		Band:     bands.BandSignal()[last],
		Rebound:  bands.BandTouches()[last],
		RSI:      RSI(window, ExpAverage),
		Momentum: Momentum(window),
	}, nil
}
