package valuation

import (
	"math"

	"github.com/matrixise/coinfolio/internal/state"
)

// palette is cycled over donut slices in row order
var palette = []string{
	"#3B82F6", "#EF4444", "#10B981", "#F59E0B", "#8B5CF6", "#EC4899", "#06B6D4", "#84CC16",
	"#6366F1", "#F97316", "#14B8A6", "#A3E635", "#F43F5E", "#0EA5E9", "#22C55E", "#A855F7",
}

// Color returns the chart color for the i-th slice
func Color(i int) string {
	n := len(palette)
	return palette[((i%n)+n)%n]
}

// Slice is one segment of the allocation chart
type Slice struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// Chart turns a valuation into allocation chart segments
func Chart(v Valuation) []Slice {
	slices := make([]Slice, len(v.Rows))
	for i, r := range v.Rows {
		label := r.Name
		if label == "" {
			label = r.Symbol
		}
		slices[i] = Slice{
			Label:      label,
			Value:      r.Value,
			Percentage: r.Percentage,
			Color:      Color(i),
		}
	}
	return slices
}

// Trend is the direction shown for a sparkline
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// Sparkline summarizes a price series for a minimal trend line
type Sparkline struct {
	Points []float64 `json:"points"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	First  float64   `json:"first"`
	Last   float64   `json:"last"`
	Trend  Trend     `json:"trend"`
}

// SummarizeSparkline computes the bounds of points. The trend follows the
// 24h change, not the series, so it matches the change column.
func SummarizeSparkline(points []float64, change24h float64) Sparkline {
	s := Sparkline{Points: points, Trend: TrendUp}
	if change24h < 0 {
		s.Trend = TrendDown
	}
	if len(points) == 0 {
		return s
	}

	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		s.Min = math.Min(s.Min, p)
		s.Max = math.Max(s.Max, p)
	}
	s.First = points[0]
	s.Last = points[len(points)-1]
	return s
}

// PortfolioSeries sums quantity times price over the 7-day sparklines of
// every held token. Series of different lengths are aligned on their most
// recent point; the result is as long as the longest series.
func PortfolioSeries(w state.Watchlist, h state.Holdings) []float64 {
	longest := 0
	for _, tok := range w.Tokens {
		if qty, _ := h.Quantity(tok.ID); qty > 0 && len(tok.Sparkline7d) > longest {
			longest = len(tok.Sparkline7d)
		}
	}
	if longest == 0 {
		return nil
	}

	series := make([]float64, longest)
	for _, tok := range w.Tokens {
		qty, _ := h.Quantity(tok.ID)
		if qty <= 0 {
			continue
		}
		offset := longest - len(tok.Sparkline7d)
		for i, p := range tok.Sparkline7d {
			series[offset+i] = clampFinite(series[offset+i] + clampFinite(qty*p))
		}
	}
	return series
}
