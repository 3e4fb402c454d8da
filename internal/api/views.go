package api

import (
	"github.com/matrixise/coinfolio/internal/state"
	"github.com/matrixise/coinfolio/internal/valuation"
)

type portfolioView struct {
	TotalValue float64           `json:"total_value"`
	Rows       []valuation.Row   `json:"rows"`
	Chart      []valuation.Slice `json:"chart"`
	Series     []float64         `json:"series"`
}

func newPortfolioView(s state.State) portfolioView {
	v := valuation.Compute(s.Watchlist, s.Holdings)
	series := valuation.PortfolioSeries(s.Watchlist, s.Holdings)
	if series == nil {
		series = []float64{}
	}
	return portfolioView{
		TotalValue: v.TotalValue,
		Rows:       v.Rows,
		Chart:      valuation.Chart(v),
		Series:     series,
	}
}

type watchlistEntry struct {
	state.TokenSnapshot
	Quantity  float64             `json:"quantity"`
	Value     float64             `json:"value"`
	Sparkline valuation.Sparkline `json:"sparkline"`
}

type watchlistView struct {
	Tokens           []watchlistEntry `json:"tokens"`
	Loading          bool             `json:"loading"`
	RefreshScheduled bool             `json:"refresh_scheduled"`
	Error            string           `json:"error,omitempty"`
}

func newWatchlistView(s state.State) watchlistView {
	entries := make([]watchlistEntry, 0, s.Watchlist.Len())
	for _, tok := range s.Watchlist.Tokens {
		qty, _ := s.Holdings.Quantity(tok.ID)
		entries = append(entries, watchlistEntry{
			TokenSnapshot: tok,
			Quantity:      qty,
			Value:         valuation.Value(s.Watchlist, s.Holdings, tok.ID),
			Sparkline:     valuation.SummarizeSparkline(tok.Sparkline7d, tok.PriceChange24hPct),
		})
	}
	return watchlistView{
		Tokens:  entries,
		Loading: s.Market.Refresh.Loading,
		Error:   s.Market.Refresh.Err,
	}
}

type catalogView struct {
	Loaded    bool                  `json:"loaded"`
	Page      int                   `json:"page"`
	Exhausted bool                  `json:"exhausted"`
	Entries   []state.TokenSnapshot `json:"entries"`
}

func newCatalogView(s state.State, loaded bool) catalogView {
	return catalogView{
		Loaded:    loaded,
		Page:      s.Market.Page,
		Exhausted: s.Market.Exhausted,
		Entries:   nonNil(s.Market.Catalog),
	}
}

type searchView struct {
	Query   string                `json:"query"`
	Results []state.TokenSnapshot `json:"results"`
}

func nonNil(tokens []state.TokenSnapshot) []state.TokenSnapshot {
	if tokens == nil {
		return []state.TokenSnapshot{}
	}
	return tokens
}
