package market

import (
	"math"
	"strings"

	"github.com/matrixise/coinfolio/internal/state"
)

// Coin is a /coins/markets record
type Coin struct {
	ID                       string    `json:"id"`
	Symbol                   string    `json:"symbol"`
	Name                     string    `json:"name"`
	Image                    string    `json:"image"`
	CurrentPrice             float64   `json:"current_price"`
	PriceChange24h           float64   `json:"price_change_24h"`
	PriceChangePercentage24h float64   `json:"price_change_percentage_24h"`
	SparklineIn7d            Sparkline `json:"sparkline_in_7d"`
}

// Sparkline is the 7-day price series attached to a market record
type Sparkline struct {
	Price []float64 `json:"price"`
}

// searchResponse is the /search payload; only coin ids are used
type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Symbol        string `json:"symbol"`
		MarketCapRank int    `json:"market_cap_rank"`
	} `json:"coins"`
}

// Snapshot converts the record to a watchlist snapshot. Symbols are
// upper-cased; negative or non-finite prices become 0.
func (c Coin) Snapshot() state.TokenSnapshot {
	return state.TokenSnapshot{
		ID:                c.ID,
		Symbol:            strings.ToUpper(c.Symbol),
		Name:              c.Name,
		ImageURL:          c.Image,
		CurrentPrice:      nonNegative(c.CurrentPrice),
		PriceChange24hPct: finite(c.PriceChangePercentage24h),
		Sparkline7d:       append([]float64(nil), c.SparklineIn7d.Price...),
	}
}

// Snapshots converts a batch of records
func Snapshots(coins []Coin) []state.TokenSnapshot {
	out := make([]state.TokenSnapshot, 0, len(coins))
	for _, c := range coins {
		if c.ID == "" {
			continue
		}
		out = append(out, c.Snapshot())
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
